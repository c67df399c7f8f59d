package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Recognized header spellings, compared after normalizeHeader. Sheets
// come from many volunteers, so the matching is deliberately loose.
var (
	firstNameHeaders = []string{"first name", "firstname", "donor name", "donorname", "donor", "name"}
	lastNameHeaders  = []string{"last name", "lastname", "father name", "fathername", "surname"}
	itemHeaders      = []string{"spending item", "spendingitem", "item", "category", "name"}
	amountHeaders    = []string{"amount", "cost", "price", "value"}
)

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	return strings.Join(strings.Fields(h), " ")
}

// columnIndex finds the first header matching any of the candidates.
// Returns -1 when none match.
func columnIndex(header []string, candidates []string) int {
	for _, want := range candidates {
		for i, h := range header {
			if normalizeHeader(h) == want {
				return i
			}
		}
	}
	return -1
}

// columnIndexContaining is the fallback heuristic: any header
// containing one of the fragments.
func columnIndexContaining(header []string, fragments []string) int {
	for i, h := range header {
		n := normalizeHeader(h)
		for _, frag := range fragments {
			if strings.Contains(n, frag) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseAmount(raw string) (float64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount value")
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount cannot be negative")
	}
	return amount, nil
}

func readSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not read excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// ParseDonationSheet reads the first sheet of an xlsx file into donor
// rows. Row numbers are 1-based counting the header, so the first data
// row reports as row 2. Bad rows become errors, good rows still parse.
func ParseDonationSheet(r io.Reader) ([]DonorRow, []string, error) {
	rows, err := readSheet(r)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file has no data rows")
	}

	header := rows[0]
	firstIdx := columnIndex(header, firstNameHeaders)
	if firstIdx < 0 {
		firstIdx = columnIndexContaining(header, []string{"first", "donor", "name"})
	}
	lastIdx := columnIndex(header, lastNameHeaders)
	if lastIdx < 0 {
		lastIdx = columnIndexContaining(header, []string{"last", "father", "surname"})
	}
	amountIdx := columnIndex(header, amountHeaders)
	if firstIdx < 0 || amountIdx < 0 {
		return nil, nil, fmt.Errorf("could not detect name/amount columns, found headers: %s", strings.Join(header, ", "))
	}

	var parsed []DonorRow
	var rowErrors []string
	for i, row := range rows[1:] {
		rowNumber := i + 2

		firstName := cell(row, firstIdx)
		lastName := cell(row, lastIdx)
		rawAmount := cell(row, amountIdx)
		if firstName == "" && lastName == "" && rawAmount == "" {
			continue // blank row
		}

		if len(firstName) < 2 {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Donor name is required and must be at least 2 characters", rowNumber))
			continue
		}
		amount, err := parseAmount(rawAmount)
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", rowNumber, err))
			continue
		}

		parsed = append(parsed, DonorRow{
			FirstName: firstName,
			LastName:  lastName,
			Amount:    amount,
			RowNumber: rowNumber,
		})
	}
	return parsed, rowErrors, nil
}

// ParseSpendingSheet reads the first sheet of an xlsx file into
// spending rows.
func ParseSpendingSheet(r io.Reader) ([]SpendingRow, []string, error) {
	rows, err := readSheet(r)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file has no data rows")
	}

	header := rows[0]
	itemIdx := columnIndex(header, itemHeaders)
	if itemIdx < 0 {
		itemIdx = columnIndexContaining(header, []string{"spend", "item", "category", "name"})
	}
	amountIdx := columnIndex(header, amountHeaders)
	if itemIdx < 0 || amountIdx < 0 {
		return nil, nil, fmt.Errorf("could not detect item/amount columns, found headers: %s", strings.Join(header, ", "))
	}

	var parsed []SpendingRow
	var rowErrors []string
	for i, row := range rows[1:] {
		rowNumber := i + 2

		item := cell(row, itemIdx)
		rawAmount := cell(row, amountIdx)
		if item == "" && rawAmount == "" {
			continue // blank row
		}

		if len(item) < 2 {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: Spending item is required and must be at least 2 characters", rowNumber))
			continue
		}
		amount, err := parseAmount(rawAmount)
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", rowNumber, err))
			continue
		}

		parsed = append(parsed, SpendingRow{
			SpendingItem: item,
			Amount:       amount,
			RowNumber:    rowNumber,
		})
	}
	return parsed, rowErrors, nil
}
