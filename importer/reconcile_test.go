package importer

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestReconcileDonorsCreatesMissing(t *testing.T) {
	donors := &fakeCollection{}
	rows := []DonorRow{
		{FirstName: "Ram Lal", LastName: "Shyam Lal", Amount: 100, RowNumber: 2},
		{FirstName: "  ram lal ", LastName: "SHYAM LAL", Amount: 50, RowNumber: 3},
		{FirstName: "Mohan", LastName: "", Amount: 20, RowNumber: 4},
	}

	keyToID, rowErrors, err := ReconcileDonors(context.Background(), donors, rows)
	if err != nil {
		t.Fatalf("ReconcileDonors: %v", err)
	}
	if len(rowErrors) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrors)
	}
	if len(keyToID) != 2 {
		t.Fatalf("got %d resolved keys, want 2", len(keyToID))
	}
	if len(donors.docs) != 2 {
		t.Fatalf("got %d donors created, want 2 (case variants must share one)", len(donors.docs))
	}

	var ram bson.M
	for _, doc := range donors.docs {
		if doc["donorName"] == "Ram Lal" {
			ram = doc
		}
	}
	if ram == nil {
		t.Fatal("donor stored without the first-seen original-case spelling")
	}
	if ram["fatherName"] != "Shyam Lal" {
		t.Errorf("fatherName = %v, want %q", ram["fatherName"], "Shyam Lal")
	}
}

func TestReconcileDonorsReusesExisting(t *testing.T) {
	existingID := primitive.NewObjectID()
	donors := &fakeCollection{docs: []bson.M{
		{"_id": existingID, "donorName": "Ram Lal", "fatherName": "Shyam Lal"},
	}}
	rows := []DonorRow{
		{FirstName: "RAM LAL", LastName: "shyam lal", Amount: 100, RowNumber: 2},
	}

	keyToID, rowErrors, err := ReconcileDonors(context.Background(), donors, rows)
	if err != nil {
		t.Fatalf("ReconcileDonors: %v", err)
	}
	if len(rowErrors) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrors)
	}
	if got := keyToID[DonorKey("Ram Lal", "Shyam Lal")]; got != existingID {
		t.Errorf("resolved id = %v, want existing %v", got, existingID)
	}
	if len(donors.docs) != 1 {
		t.Errorf("got %d donors, want 1 (no duplicate created)", len(donors.docs))
	}
	if donors.bulkWriteCalls != 0 {
		t.Errorf("BulkWrite called %d times, want 0 when everything matched", donors.bulkWriteCalls)
	}
}

func TestReconcileDonorsMatchesAbsentFatherName(t *testing.T) {
	existingID := primitive.NewObjectID()
	donors := &fakeCollection{docs: []bson.M{
		{"_id": existingID, "donorName": "Mohan"},
	}}
	rows := []DonorRow{
		{FirstName: "mohan", LastName: "", Amount: 10, RowNumber: 2},
	}

	keyToID, _, err := ReconcileDonors(context.Background(), donors, rows)
	if err != nil {
		t.Fatalf("ReconcileDonors: %v", err)
	}
	if got := keyToID[DonorKey("Mohan", "")]; got != existingID {
		t.Errorf("resolved id = %v, want %v (absent field must match empty father name)", got, existingID)
	}
	if len(donors.docs) != 1 {
		t.Errorf("got %d donors, want 1", len(donors.docs))
	}
}

func TestReconcileDonorsRecoversConcurrentInsert(t *testing.T) {
	// A concurrent import wins the upsert race: our bulk write is a
	// no-op but the re-query must still resolve the id it created.
	racedID := primitive.NewObjectID()
	donors := &fakeCollection{}
	donors.bulkWriteFn = func(models []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
		donors.docs = append(donors.docs, bson.M{
			"_id": racedID, "donorName": "Ram Lal", "fatherName": "Shyam Lal",
		})
		return &mongo.BulkWriteResult{}, nil
	}

	rows := []DonorRow{
		{FirstName: "ram lal", LastName: "shyam lal", Amount: 100, RowNumber: 2},
	}
	keyToID, rowErrors, err := ReconcileDonors(context.Background(), donors, rows)
	if err != nil {
		t.Fatalf("ReconcileDonors: %v", err)
	}
	if len(rowErrors) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrors)
	}
	if got := keyToID[DonorKey("Ram Lal", "Shyam Lal")]; got != racedID {
		t.Errorf("resolved id = %v, want raced %v", got, racedID)
	}
}

func TestReconcileDonorsReportsUnresolvedRows(t *testing.T) {
	donors := &fakeCollection{}
	donors.bulkWriteFn = func(models []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
		return &mongo.BulkWriteResult{}, nil // nothing lands
	}

	rows := []DonorRow{
		{FirstName: "Ram Lal", LastName: "Shyam Lal", Amount: 100, RowNumber: 2},
		{FirstName: "ram lal", LastName: "shyam lal", Amount: 50, RowNumber: 5},
	}
	keyToID, rowErrors, err := ReconcileDonors(context.Background(), donors, rows)
	if err != nil {
		t.Fatalf("ReconcileDonors: %v", err)
	}
	if len(keyToID) != 0 {
		t.Fatalf("resolved %d keys, want 0", len(keyToID))
	}
	for _, row := range []int{2, 5} {
		if rowErrors[row] != "Failed to find or create donor" {
			t.Errorf("rowErrors[%d] = %q", row, rowErrors[row])
		}
	}
}

func TestReconcileSpendingItemsDedup(t *testing.T) {
	items := &fakeCollection{}
	rows := []SpendingRow{
		{SpendingItem: "Ghee", Amount: 500, RowNumber: 2},
		{SpendingItem: " ghee ", Amount: 300, RowNumber: 3},
		{SpendingItem: "Rice", Amount: 800, RowNumber: 4},
	}

	keyToID, rowErrors, err := ReconcileSpendingItems(context.Background(), items, rows)
	if err != nil {
		t.Fatalf("ReconcileSpendingItems: %v", err)
	}
	if len(rowErrors) != 0 {
		t.Fatalf("unexpected row errors: %v", rowErrors)
	}
	if len(keyToID) != 2 {
		t.Fatalf("got %d keys, want 2", len(keyToID))
	}
	if len(items.docs) != 2 {
		t.Fatalf("got %d items created, want 2", len(items.docs))
	}
}

func TestReconcileEmptyRows(t *testing.T) {
	donors := &fakeCollection{}
	keyToID, rowErrors, err := ReconcileDonors(context.Background(), donors, nil)
	if err != nil {
		t.Fatalf("ReconcileDonors: %v", err)
	}
	if len(keyToID) != 0 || len(rowErrors) != 0 {
		t.Error("empty input must resolve to empty maps")
	}
	if donors.bulkWriteCalls != 0 {
		t.Error("no store calls expected for empty input")
	}
}
