package importer

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// keySeparator joins the donor name and father name into one matching
// key. Must be a token that cannot occur inside a real name; a plain
// underscore collides with names that contain one.
const keySeparator = "|||"

// DonorKey builds the canonical identity key for a donor. The same key
// is used for batch-internal dedup and for mapping store lookups back
// to rows, so trim/lowercase here and case-insensitive filters below
// have to agree.
func DonorKey(donorName, fatherName string) string {
	return strings.ToLower(strings.TrimSpace(donorName)) + keySeparator + strings.ToLower(strings.TrimSpace(fatherName))
}

// ItemKey is the canonical identity key for a spending item.
func ItemKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ciExact matches a field case-insensitively against the whole trimmed
// value. Names are free text, so regex metacharacters get escaped.
func ciExact(value string) bson.M {
	return bson.M{"$regex": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(value)) + "$",
		Options: "i",
	}}
}

// noFatherName matches the three ways a donor can lack a father name:
// field absent, empty string, or null.
var noFatherName = []bson.M{
	{"fatherName": bson.M{"$exists": false}},
	{"fatherName": ""},
	{"fatherName": nil},
}

// donorFilter is the store-side counterpart of DonorKey.
func donorFilter(donorName, fatherName string) bson.M {
	filter := bson.M{"donorName": ciExact(donorName)}
	if strings.TrimSpace(fatherName) != "" {
		filter["fatherName"] = ciExact(fatherName)
	} else {
		filter["$or"] = noFatherName
	}
	return filter
}

// itemFilter is the store-side counterpart of ItemKey.
func itemFilter(name string) bson.M {
	return bson.M{"name": ciExact(name)}
}
