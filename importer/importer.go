// Package importer implements the bulk spreadsheet import pipeline:
// spreadsheet rows are reconciled against the donor / spending-item
// collections (batched lookup, upsert-on-missing, re-query) and the
// resolved references are written as financial records in one unordered
// bulk insert. Failures are reported per row; a single bad row never
// aborts the batch.
package importer

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the subset of *mongo.Collection the import pipeline
// consumes. Satisfied by the real driver and by in-memory fakes in
// tests.
type Collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
}

// DonorRow is one parsed donation spreadsheet row. RowNumber is
// 1-based and accounts for the header row (first data row = 2).
type DonorRow struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Amount    float64 `json:"amount"`
	RowNumber int     `json:"rowNumber"`
}

// SpendingRow is one parsed spending spreadsheet row.
type SpendingRow struct {
	SpendingItem string  `json:"spendingItem"`
	Amount       float64 `json:"amount"`
	RowNumber    int     `json:"rowNumber"`
}

type ImportResults struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

type ImportResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Results ImportResults `json:"results"`
}

// Failure builds the zero-rows-processed response used for batch-level
// preconditions (unauthenticated, bad id, locked bhandara, empty file).
func Failure(message string, errs ...string) ImportResponse {
	return ImportResponse{
		Success: false,
		Message: message,
		Results: ImportResults{Errors: errs},
	}
}
