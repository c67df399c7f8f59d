package importer

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeCollection is an in-memory Collection. It evaluates the filter
// shapes the import pipeline actually produces: field equality,
// anchored case-insensitive $regex, $exists, nil and $or.
type fakeCollection struct {
	docs []bson.M

	bulkWriteCalls int
	insertedDocs   []interface{}

	// optional overrides
	bulkWriteFn  func(models []mongo.WriteModel) (*mongo.BulkWriteResult, error)
	insertManyFn func(docs []interface{}) (*mongo.InsertManyResult, error)
}

func matchValue(docValue interface{}, cond interface{}) bool {
	switch c := cond.(type) {
	case bson.M:
		if rx, ok := c["$regex"]; ok {
			pattern := rx.(primitive.Regex)
			expr := pattern.Pattern
			if strings.Contains(pattern.Options, "i") {
				expr = "(?i)" + expr
			}
			s, ok := docValue.(string)
			if !ok {
				return false
			}
			matched, err := regexp.MatchString(expr, s)
			return err == nil && matched
		}
		return false
	default:
		return docValue == cond
	}
}

func matchDoc(doc bson.M, filter bson.M) bool {
	for field, cond := range filter {
		if field == "$or" {
			any := false
			for _, sub := range cond.([]bson.M) {
				if matchDoc(doc, sub) {
					any = true
					break
				}
			}
			if !any {
				return false
			}
			continue
		}
		if m, ok := cond.(bson.M); ok {
			if exists, has := m["$exists"]; has {
				_, present := doc[field]
				if present != exists.(bool) {
					return false
				}
				continue
			}
		}
		value, present := doc[field]
		if cond == nil {
			if !present || value != nil {
				return false
			}
			continue
		}
		if !present || !matchValue(value, cond) {
			return false
		}
	}
	return true
}

func (f *fakeCollection) matching(filter bson.M) []interface{} {
	var out []interface{}
	for _, doc := range f.docs {
		if matchDoc(doc, filter) {
			out = append(out, doc)
		}
	}
	return out
}

func (f *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	matched := f.matching(filter.(bson.M))
	if matched == nil {
		matched = []interface{}{}
	}
	return mongo.NewCursorFromDocuments(matched, nil, nil)
}

func (f *fakeCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	matched := f.matching(filter.(bson.M))
	if len(matched) == 0 {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(matched[0], nil, nil)
}

func (f *fakeCollection) InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	if f.insertManyFn != nil {
		return f.insertManyFn(documents)
	}
	f.insertedDocs = append(f.insertedDocs, documents...)
	ids := make([]interface{}, len(documents))
	for i := range documents {
		ids[i] = primitive.NewObjectID()
	}
	return &mongo.InsertManyResult{InsertedIDs: ids}, nil
}

// BulkWrite applies $setOnInsert upserts the way the server would:
// a document matching the filter suppresses the insert.
func (f *fakeCollection) BulkWrite(ctx context.Context, writeModels []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	f.bulkWriteCalls++
	if f.bulkWriteFn != nil {
		return f.bulkWriteFn(writeModels)
	}
	for _, wm := range writeModels {
		m := wm.(*mongo.UpdateOneModel)
		filter := m.Filter.(bson.M)
		exists := false
		for _, doc := range f.docs {
			if matchDoc(doc, filter) {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		doc := bson.M{"_id": primitive.NewObjectID()}
		for k, v := range m.Update.(bson.M)["$setOnInsert"].(bson.M) {
			doc[k] = v
		}
		f.docs = append(f.docs, doc)
	}
	return &mongo.BulkWriteResult{}, nil
}
