package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/bhandara-tracker-go/models"
)

// uniqueDonor keeps the first-seen original-case spelling (used for the
// insert) and the rows that referenced it (used for diagnostics).
type uniqueDonor struct {
	donorName  string
	fatherName string
	rows       []int
}

type uniqueItem struct {
	name string
	rows []int
}

// ReconcileDonors resolves every row to an existing or newly created
// donor. Three phases: one batched lookup for all unique keys, one
// unordered bulk upsert for the missing ones, then a re-query of
// exactly the missing keys. The re-query also recovers ids created by a
// concurrent import whose insert won the upsert race.
//
// Returns the key->id map and per-row errors for keys that could not be
// resolved. The batch always continues past row-level failures; only
// store errors on the batched operations fail the whole call.
func ReconcileDonors(ctx context.Context, donors Collection, rows []DonorRow) (map[string]primitive.ObjectID, map[int]string, error) {
	keyToID := make(map[string]primitive.ObjectID)
	rowErrors := make(map[int]string)

	unique := make(map[string]*uniqueDonor)
	var order []string
	for _, row := range rows {
		key := DonorKey(row.FirstName, row.LastName)
		if u, ok := unique[key]; ok {
			u.rows = append(u.rows, row.RowNumber)
			continue
		}
		unique[key] = &uniqueDonor{
			donorName:  strings.TrimSpace(row.FirstName),
			fatherName: strings.TrimSpace(row.LastName),
			rows:       []int{row.RowNumber},
		}
		order = append(order, key)
	}
	if len(order) == 0 {
		return keyToID, rowErrors, nil
	}

	filters := make([]bson.M, 0, len(order))
	for _, key := range order {
		u := unique[key]
		filters = append(filters, donorFilter(u.donorName, u.fatherName))
	}

	if err := findDonorsInto(ctx, donors, filters, keyToID); err != nil {
		return nil, nil, fmt.Errorf("failed to find existing donors: %w", err)
	}

	// Upsert the keys the lookup missed. $setOnInsert keeps a racing
	// insert from being overwritten.
	var ops []mongo.WriteModel
	var missing []bson.M
	now := time.Now()
	for _, key := range order {
		if _, ok := keyToID[key]; ok {
			continue
		}
		u := unique[key]
		doc := bson.M{
			"donorName": u.donorName,
			"createdAt": now,
		}
		if u.fatherName != "" {
			doc["fatherName"] = u.fatherName
		}
		filter := donorFilter(u.donorName, u.fatherName)
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
		missing = append(missing, filter)
	}

	if len(ops) > 0 {
		if _, err := donors.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false)); err != nil {
			return nil, nil, fmt.Errorf("failed to create donors: %w", err)
		}
		// Re-query exactly the keys that were missing. This recovers
		// both our upserted ids and ids a concurrent writer created in
		// the meantime.
		if err := findDonorsInto(ctx, donors, missing, keyToID); err != nil {
			return nil, nil, fmt.Errorf("failed to fetch created donors: %w", err)
		}
	}

	for _, key := range order {
		if _, ok := keyToID[key]; ok {
			continue
		}
		for _, rowNumber := range unique[key].rows {
			rowErrors[rowNumber] = "Failed to find or create donor"
		}
	}

	return keyToID, rowErrors, nil
}

func findDonorsInto(ctx context.Context, donors Collection, filters []bson.M, keyToID map[string]primitive.ObjectID) error {
	if len(filters) == 0 {
		return nil
	}
	cursor, err := donors.Find(ctx, bson.M{"$or": filters})
	if err != nil {
		return err
	}
	var found []models.Donor
	if err := cursor.All(ctx, &found); err != nil {
		return err
	}
	for _, donor := range found {
		keyToID[DonorKey(donor.DonorName, donor.FatherName)] = donor.ID
	}
	return nil
}

// ReconcileSpendingItems is the single-key variant of donor
// reconciliation: items match case-insensitively on name alone.
func ReconcileSpendingItems(ctx context.Context, items Collection, rows []SpendingRow) (map[string]primitive.ObjectID, map[int]string, error) {
	keyToID := make(map[string]primitive.ObjectID)
	rowErrors := make(map[int]string)

	unique := make(map[string]*uniqueItem)
	var order []string
	for _, row := range rows {
		key := ItemKey(row.SpendingItem)
		if u, ok := unique[key]; ok {
			u.rows = append(u.rows, row.RowNumber)
			continue
		}
		unique[key] = &uniqueItem{
			name: strings.TrimSpace(row.SpendingItem),
			rows: []int{row.RowNumber},
		}
		order = append(order, key)
	}
	if len(order) == 0 {
		return keyToID, rowErrors, nil
	}

	filters := make([]bson.M, 0, len(order))
	for _, key := range order {
		filters = append(filters, itemFilter(unique[key].name))
	}

	if err := findItemsInto(ctx, items, filters, keyToID); err != nil {
		return nil, nil, fmt.Errorf("failed to find existing spending items: %w", err)
	}

	var ops []mongo.WriteModel
	var missing []bson.M
	now := time.Now()
	for _, key := range order {
		if _, ok := keyToID[key]; ok {
			continue
		}
		u := unique[key]
		filter := itemFilter(u.name)
		ops = append(ops, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$setOnInsert": bson.M{
				"name":      u.name,
				"createdAt": now,
				"updatedAt": now,
			}}).
			SetUpsert(true))
		missing = append(missing, filter)
	}

	if len(ops) > 0 {
		if _, err := items.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false)); err != nil {
			return nil, nil, fmt.Errorf("failed to create spending items: %w", err)
		}
		if err := findItemsInto(ctx, items, missing, keyToID); err != nil {
			return nil, nil, fmt.Errorf("failed to fetch created spending items: %w", err)
		}
	}

	for _, key := range order {
		if _, ok := keyToID[key]; ok {
			continue
		}
		u := unique[key]
		for _, rowNumber := range u.rows {
			rowErrors[rowNumber] = fmt.Sprintf("Failed to find or create spending item %q", u.name)
		}
	}

	return keyToID, rowErrors, nil
}

func findItemsInto(ctx context.Context, items Collection, filters []bson.M, keyToID map[string]primitive.ObjectID) error {
	if len(filters) == 0 {
		return nil
	}
	cursor, err := items.Find(ctx, bson.M{"$or": filters})
	if err != nil {
		return err
	}
	var found []models.SpendingItem
	if err := cursor.All(ctx, &found); err != nil {
		return err
	}
	for _, item := range found {
		keyToID[ItemKey(item.Name)] = item.ID
	}
	return nil
}
