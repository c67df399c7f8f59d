package importer

import (
	"context"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRunDonationImportCountsDonorsNotDonations(t *testing.T) {
	donors := &fakeCollection{}
	donations := &fakeCollection{}
	bhandaraID, adminID := primitive.NewObjectID(), primitive.NewObjectID()

	rows := []DonorRow{
		{FirstName: "Ram Lal", LastName: "Shyam Lal", Amount: 100, RowNumber: 2},
		{FirstName: "Mohan", LastName: "", Amount: 0, RowNumber: 3},
	}

	resp := RunDonationImport(context.Background(), donors, donations, rows, bhandaraID, adminID)
	if !resp.Success {
		t.Fatalf("import failed: %s", resp.Message)
	}
	// Both rows resolved to donors, only one carried a donation.
	if resp.Results.Success != 2 {
		t.Errorf("results.success = %d, want 2 (counts resolved donors)", resp.Results.Success)
	}
	if resp.Results.Failed != 0 {
		t.Errorf("results.failed = %d, want 0: %v", resp.Results.Failed, resp.Results.Errors)
	}
	if len(donations.insertedDocs) != 1 {
		t.Errorf("stored %d donations, want 1", len(donations.insertedDocs))
	}
	if !strings.Contains(resp.Message, "without donation") {
		t.Errorf("message %q should mention the amount-0 donor", resp.Message)
	}
}

func TestRunDonationImportIsRepeatableForDonors(t *testing.T) {
	donors := &fakeCollection{}
	donations := &fakeCollection{}
	bhandaraID, adminID := primitive.NewObjectID(), primitive.NewObjectID()

	rows := []DonorRow{
		{FirstName: "Ram Lal", LastName: "Shyam Lal", Amount: 100, RowNumber: 2},
	}

	RunDonationImport(context.Background(), donors, donations, rows, bhandaraID, adminID)
	RunDonationImport(context.Background(), donors, donations, rows, bhandaraID, adminID)

	if len(donors.docs) != 1 {
		t.Errorf("got %d donors after re-import, want 1", len(donors.docs))
	}
	// Donations are intentionally not deduped.
	if len(donations.insertedDocs) != 2 {
		t.Errorf("got %d donations after re-import, want 2", len(donations.insertedDocs))
	}
}

func TestRunSpendingImportReportsDuplicates(t *testing.T) {
	items := &fakeCollection{}
	spendings := &fakeCollection{}
	bhandaraID, adminID := primitive.NewObjectID(), primitive.NewObjectID()

	rows := []SpendingRow{
		{SpendingItem: "Ghee", Amount: 500, RowNumber: 2},
		{SpendingItem: "ghee", Amount: 300, RowNumber: 3},
		{SpendingItem: "Rice", Amount: 800, RowNumber: 4},
	}

	resp := RunSpendingImport(context.Background(), items, spendings, rows, bhandaraID, adminID)
	if !resp.Success {
		t.Fatalf("import failed: %s", resp.Message)
	}
	if len(items.docs) != 2 {
		t.Errorf("got %d items, want 2", len(items.docs))
	}
	if !strings.Contains(resp.Message, "(1 duplicate found)") {
		t.Errorf("message %q should report the duplicate row", resp.Message)
	}
	if !strings.Contains(resp.Message, "created 2 unique spending items") {
		t.Errorf("message %q should report created unique items", resp.Message)
	}
	if !strings.Contains(resp.Message, "(3 rows processed)") {
		t.Errorf("message %q should report processed rows when they exceed unique items", resp.Message)
	}
	if !strings.Contains(resp.Message, "3 bhandara spendings created") {
		t.Errorf("message %q should report created spendings", resp.Message)
	}
}

func TestRunSpendingImportReportsAmountZeroItems(t *testing.T) {
	items := &fakeCollection{}
	spendings := &fakeCollection{}

	rows := []SpendingRow{
		{SpendingItem: "Ghee", Amount: 0, RowNumber: 2},
	}

	resp := RunSpendingImport(context.Background(), items, spendings, rows, primitive.NewObjectID(), primitive.NewObjectID())
	if !resp.Success {
		t.Fatalf("import failed: %s", resp.Message)
	}
	// The item is still created, only the spending record is skipped.
	if len(items.docs) != 1 {
		t.Errorf("got %d items, want 1", len(items.docs))
	}
	if len(spendings.insertedDocs) != 0 {
		t.Errorf("got %d spendings, want 0", len(spendings.insertedDocs))
	}
	if !strings.Contains(resp.Message, "created 1 unique spending item") {
		t.Errorf("message %q should report the created item", resp.Message)
	}
	if !strings.Contains(resp.Message, "1 spending item without amount (amount 0)") {
		t.Errorf("message %q should report the amount-0 item", resp.Message)
	}
}

func TestFailureShape(t *testing.T) {
	resp := Failure("Bhandara is locked")
	if resp.Success {
		t.Error("Failure must report success=false")
	}
	if resp.Results.Success != 0 || resp.Results.Failed != 0 {
		t.Errorf("results = %+v, want zero rows processed", resp.Results)
	}
}
