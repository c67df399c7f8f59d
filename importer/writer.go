package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/bhandara-tracker-go/models"
)

// ResolvedDonation is a spreadsheet row whose donor reference has been
// reconciled.
type ResolvedDonation struct {
	DonorID   primitive.ObjectID
	Amount    float64
	RowNumber int
}

// ResolvedSpending is a spreadsheet row whose spending-item reference
// has been reconciled. ItemName is kept for error messages only.
type ResolvedSpending struct {
	ItemID    primitive.ObjectID
	ItemName  string
	Amount    float64
	RowNumber int
}

// InsertDonations writes donation records for resolved rows in one
// unordered bulk insert. Rows with amount 0 are skipped silently (the
// donor exists, there is no gift this round). Write failures are mapped
// back to their originating spreadsheet rows through the insert's
// positional index; independent rows still land.
//
// The caller has already verified the bhandara exists and is not
// locked.
func InsertDonations(ctx context.Context, donations Collection, resolved []ResolvedDonation, bhandaraID, adminID primitive.ObjectID) (int, map[int]string, error) {
	rowErrors := make(map[int]string)

	now := time.Now()
	var docs []interface{}
	var docRows []int
	for _, r := range resolved {
		if r.Amount == 0 {
			continue
		}
		docs = append(docs, models.Donation{
			ID:            primitive.NewObjectID(),
			DonorID:       r.DonorID,
			BhandaraID:    bhandaraID,
			Amount:        r.Amount,
			PaymentStatus: models.PaymentStatusDone,
			PaymentMode:   models.PaymentModeCash,
			Date:          now,
			AdminID:       adminID,
			IsLocked:      false,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		docRows = append(docRows, r.RowNumber)
	}
	if len(docs) == 0 {
		return 0, rowErrors, nil
	}

	res, err := donations.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			for _, writeErr := range bwe.WriteErrors {
				row := writeErr.Index + 1
				if writeErr.Index >= 0 && writeErr.Index < len(docRows) {
					row = docRows[writeErr.Index]
				}
				msg := writeErr.Message
				if msg == "" {
					msg = "Failed to create donation"
				}
				rowErrors[row] = msg
			}
			return len(docs) - len(bwe.WriteErrors), rowErrors, nil
		}
		return 0, rowErrors, err
	}
	return len(res.InsertedIDs), rowErrors, nil
}

// InsertSpendings writes spending records for resolved rows. Unlike
// donations, a second spending for the same (item, bhandara) pair is a
// data-entry conflict: the existing-record pre-check turns it into a
// per-row error instead of an overwrite. Amount-0 rows are skipped
// silently.
func InsertSpendings(ctx context.Context, spendings Collection, resolved []ResolvedSpending, bhandaraID, adminID primitive.ObjectID) (int, map[int]string, error) {
	rowErrors := make(map[int]string)

	now := time.Now()
	var docs []interface{}
	var docRows []int
	for _, r := range resolved {
		if r.Amount == 0 {
			continue
		}

		err := spendings.FindOne(ctx, bson.M{
			"spendingItem": r.ItemID,
			"bhandara":     bhandaraID,
		}).Err()
		switch {
		case err == nil:
			rowErrors[r.RowNumber] = fmt.Sprintf("Spending record already exists for %q in this bhandara", r.ItemName)
			continue
		case errors.Is(err, mongo.ErrNoDocuments):
			// no conflict
		default:
			rowErrors[r.RowNumber] = "Failed to check existing spending record"
			continue
		}

		docs = append(docs, models.BhandaraSpending{
			ID:             primitive.NewObjectID(),
			SpendingItemID: r.ItemID,
			BhandaraID:     bhandaraID,
			Amount:         r.Amount,
			PaymentMode:    models.PaymentModeCash,
			Date:           now,
			Note:           fmt.Sprintf("Uploaded from Excel - Row %d", r.RowNumber),
			AdminID:        adminID,
			IsLocked:       false,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		docRows = append(docRows, r.RowNumber)
	}
	if len(docs) == 0 {
		return 0, rowErrors, nil
	}

	res, err := spendings.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			for _, writeErr := range bwe.WriteErrors {
				row := writeErr.Index + 1
				if writeErr.Index >= 0 && writeErr.Index < len(docRows) {
					row = docRows[writeErr.Index]
				}
				msg := writeErr.Message
				if msg == "" {
					msg = "Failed to create bhandara spending"
				}
				rowErrors[row] = msg
			}
			return len(docs) - len(bwe.WriteErrors), rowErrors, nil
		}
		return 0, rowErrors, err
	}
	return len(res.InsertedIDs), rowErrors, nil
}
