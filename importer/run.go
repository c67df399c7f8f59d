package importer

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RunDonationImport reconciles donor rows and inserts their donations.
// results.success counts rows resolved to a donor; donation rows are
// never deduped, so re-importing the same file doubles donations while
// the donor set stays the same.
func RunDonationImport(ctx context.Context, donors, donations Collection, rows []DonorRow, bhandaraID, adminID primitive.ObjectID) ImportResponse {
	keyToID, reconcileErrors, err := ReconcileDonors(ctx, donors, rows)
	if err != nil {
		return Failure(err.Error(), err.Error())
	}

	donorSuccessCount := 0
	var resolved []ResolvedDonation
	for _, row := range rows {
		id, ok := keyToID[DonorKey(row.FirstName, row.LastName)]
		if !ok {
			continue
		}
		donorSuccessCount++
		resolved = append(resolved, ResolvedDonation{
			DonorID:   id,
			Amount:    row.Amount,
			RowNumber: row.RowNumber,
		})
	}

	donationSuccessCount, writeErrors, err := InsertDonations(ctx, donations, resolved, bhandaraID, adminID)
	if err != nil {
		return Failure(err.Error(), err.Error())
	}

	errs := mergeRowErrors(reconcileErrors, writeErrors)
	withoutDonations := donorSuccessCount - donationSuccessCount

	message := fmt.Sprintf("Processed %d donor%s successfully", donorSuccessCount, plural(donorSuccessCount))
	if donationSuccessCount > 0 {
		message += fmt.Sprintf(", %d with donation%s", donationSuccessCount, plural(donationSuccessCount))
	}
	if withoutDonations > 0 {
		message += fmt.Sprintf(", %d without donation%s (amount 0)", withoutDonations, plural(withoutDonations))
	}
	if len(errs) > 0 {
		message += fmt.Sprintf(", %d failed", len(errs))
	}

	return ImportResponse{
		Success: true,
		Message: message,
		Results: ImportResults{
			Success: donorSuccessCount,
			Failed:  len(errs),
			Errors:  errs,
		},
	}
}

// RunSpendingImport reconciles spending-item rows and inserts their
// spending records.
func RunSpendingImport(ctx context.Context, items, spendings Collection, rows []SpendingRow, bhandaraID, adminID primitive.ObjectID) ImportResponse {
	keyToID, reconcileErrors, err := ReconcileSpendingItems(ctx, items, rows)
	if err != nil {
		return Failure(err.Error(), err.Error())
	}

	uniqueKeys := make(map[string]struct{})
	for _, row := range rows {
		uniqueKeys[ItemKey(row.SpendingItem)] = struct{}{}
	}

	itemSuccessCount := 0
	var resolved []ResolvedSpending
	for _, row := range rows {
		id, ok := keyToID[ItemKey(row.SpendingItem)]
		if !ok {
			continue
		}
		itemSuccessCount++
		resolved = append(resolved, ResolvedSpending{
			ItemID:    id,
			ItemName:  row.SpendingItem,
			Amount:    row.Amount,
			RowNumber: row.RowNumber,
		})
	}

	spendingSuccessCount, writeErrors, err := InsertSpendings(ctx, spendings, resolved, bhandaraID, adminID)
	if err != nil {
		return Failure(err.Error(), err.Error())
	}

	errs := mergeRowErrors(reconcileErrors, writeErrors)

	totalRows := len(rows)
	uniqueCount := len(uniqueKeys)
	duplicateCount := totalRows - uniqueCount
	withoutAmount := itemSuccessCount - spendingSuccessCount

	message := fmt.Sprintf("Processed %d row%s", totalRows, plural(totalRows))
	if duplicateCount > 0 {
		message += fmt.Sprintf(" (%d duplicate%s found)", duplicateCount, plural(duplicateCount))
	}
	message += fmt.Sprintf(", created %d unique spending item%s", uniqueCount, plural(uniqueCount))
	if itemSuccessCount != uniqueCount {
		message += fmt.Sprintf(" (%d row%s processed)", itemSuccessCount, plural(itemSuccessCount))
	}
	if spendingSuccessCount > 0 {
		message += fmt.Sprintf(", %d bhandara spending%s created", spendingSuccessCount, plural(spendingSuccessCount))
	}
	if withoutAmount > 0 {
		message += fmt.Sprintf(", %d spending item%s without amount (amount 0)", withoutAmount, plural(withoutAmount))
	}
	if len(errs) > 0 {
		message += fmt.Sprintf(", %d error%s", len(errs), plural(len(errs)))
	}

	return ImportResponse{
		Success: true,
		Message: message,
		Results: ImportResults{
			Success: itemSuccessCount,
			Failed:  len(errs),
			Errors:  errs,
		},
	}
}

// mergeRowErrors flattens per-row error maps into "Row N: ..." strings
// ordered by row number so the operator can fix and resubmit just those
// rows.
func mergeRowErrors(maps ...map[int]string) []string {
	merged := make(map[int]string)
	for _, m := range maps {
		for row, msg := range m {
			merged[row] = msg
		}
	}
	rowNumbers := make([]int, 0, len(merged))
	for row := range merged {
		rowNumbers = append(rowNumbers, row)
	}
	sort.Ints(rowNumbers)

	errs := make([]string, 0, len(rowNumbers))
	for _, row := range rowNumbers {
		errs = append(errs, fmt.Sprintf("Row %d: %s", row, merged[row]))
	}
	return errs
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
