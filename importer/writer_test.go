package importer

import (
	"context"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	models "github.com/phillip/bhandara-tracker-go/models"
)

func TestInsertDonationsSkipsZeroAmount(t *testing.T) {
	donations := &fakeCollection{}
	bhandaraID, adminID := primitive.NewObjectID(), primitive.NewObjectID()

	resolved := []ResolvedDonation{
		{DonorID: primitive.NewObjectID(), Amount: 100, RowNumber: 2},
		{DonorID: primitive.NewObjectID(), Amount: 0, RowNumber: 3},
		{DonorID: primitive.NewObjectID(), Amount: 50, RowNumber: 4},
	}

	inserted, rowErrors, err := InsertDonations(context.Background(), donations, resolved, bhandaraID, adminID)
	if err != nil {
		t.Fatalf("InsertDonations: %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}
	if len(rowErrors) != 0 {
		t.Errorf("amount-0 row must be skipped silently, got errors: %v", rowErrors)
	}
	if len(donations.insertedDocs) != 2 {
		t.Errorf("stored %d docs, want 2", len(donations.insertedDocs))
	}
}

func TestInsertDonationsAllZero(t *testing.T) {
	donations := &fakeCollection{}
	resolved := []ResolvedDonation{
		{DonorID: primitive.NewObjectID(), Amount: 0, RowNumber: 2},
	}
	inserted, rowErrors, err := InsertDonations(context.Background(), donations, resolved, primitive.NewObjectID(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("InsertDonations: %v", err)
	}
	if inserted != 0 || len(rowErrors) != 0 {
		t.Errorf("inserted = %d, errors = %v; want 0 and none", inserted, rowErrors)
	}
}

func TestInsertDonationsMapsPartialFailure(t *testing.T) {
	donations := &fakeCollection{}
	donations.insertManyFn = func(docs []interface{}) (*mongo.InsertManyResult, error) {
		return nil, mongo.BulkWriteException{
			WriteErrors: []mongo.BulkWriteError{
				{WriteError: mongo.WriteError{Index: 1, Code: 121, Message: "Document failed validation"}},
			},
		}
	}

	resolved := []ResolvedDonation{
		{DonorID: primitive.NewObjectID(), Amount: 100, RowNumber: 2},
		{DonorID: primitive.NewObjectID(), Amount: 0, RowNumber: 3}, // skipped, shifts indexes
		{DonorID: primitive.NewObjectID(), Amount: 50, RowNumber: 4},
	}

	inserted, rowErrors, err := InsertDonations(context.Background(), donations, resolved, primitive.NewObjectID(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("partial failure must not be a hard error: %v", err)
	}
	if inserted != 1 {
		t.Errorf("inserted = %d, want 1", inserted)
	}
	// Index 1 of the insert is the second non-zero row, sheet row 4.
	if msg := rowErrors[4]; msg != "Document failed validation" {
		t.Errorf("rowErrors[4] = %q, want write error mapped to its sheet row; all: %v", msg, rowErrors)
	}
}

func TestInsertSpendingsRejectsExistingRecord(t *testing.T) {
	bhandaraID, adminID := primitive.NewObjectID(), primitive.NewObjectID()
	gheeID, riceID := primitive.NewObjectID(), primitive.NewObjectID()

	spendings := &fakeCollection{docs: []bson.M{
		{"_id": primitive.NewObjectID(), "spendingItem": gheeID, "bhandara": bhandaraID},
	}}

	resolved := []ResolvedSpending{
		{ItemID: gheeID, ItemName: "Ghee", Amount: 500, RowNumber: 2},
		{ItemID: riceID, ItemName: "Rice", Amount: 800, RowNumber: 3},
	}

	inserted, rowErrors, err := InsertSpendings(context.Background(), spendings, resolved, bhandaraID, adminID)
	if err != nil {
		t.Fatalf("InsertSpendings: %v", err)
	}
	if inserted != 1 {
		t.Errorf("inserted = %d, want 1 (existing record must not be overwritten)", inserted)
	}
	if !strings.Contains(rowErrors[2], "already exists") {
		t.Errorf("rowErrors[2] = %q, want an already-exists error", rowErrors[2])
	}
	if _, ok := rowErrors[3]; ok {
		t.Errorf("row 3 should have landed, got error %q", rowErrors[3])
	}
}

func TestInsertSpendingsNoteCarriesRowNumber(t *testing.T) {
	spendings := &fakeCollection{}
	resolved := []ResolvedSpending{
		{ItemID: primitive.NewObjectID(), ItemName: "Ghee", Amount: 500, RowNumber: 7},
	}

	if _, _, err := InsertSpendings(context.Background(), spendings, resolved, primitive.NewObjectID(), primitive.NewObjectID()); err != nil {
		t.Fatalf("InsertSpendings: %v", err)
	}
	if len(spendings.insertedDocs) != 1 {
		t.Fatalf("stored %d docs, want 1", len(spendings.insertedDocs))
	}
	spending := spendings.insertedDocs[0].(models.BhandaraSpending)
	if !strings.Contains(spending.Note, "Row 7") {
		t.Errorf("note = %q, want the originating row number", spending.Note)
	}
}

func TestMergeRowErrorsSortsByRow(t *testing.T) {
	errs := mergeRowErrors(
		map[int]string{12: "twelve", 3: "three"},
		map[int]string{7: "seven"},
	)
	want := []string{"Row 3: three", "Row 7: seven", "Row 12: twelve"}
	if len(errs) != len(want) {
		t.Fatalf("got %d errors, want %d", len(errs), len(want))
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Errorf("errs[%d] = %q, want %q", i, errs[i], want[i])
		}
	}
}
