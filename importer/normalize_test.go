package importer

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDonorKeyNormalizes(t *testing.T) {
	base := DonorKey("Ram Lal", "Shyam Lal")

	same := []struct{ donor, father string }{
		{"ram lal", "shyam lal"},
		{"  Ram Lal  ", "Shyam Lal"},
		{"RAM LAL", "  SHYAM LAL"},
	}
	for _, tc := range same {
		if got := DonorKey(tc.donor, tc.father); got != base {
			t.Errorf("DonorKey(%q, %q) = %q, want %q", tc.donor, tc.father, got, base)
		}
	}

	if DonorKey("Ram Lal", "") == base {
		t.Error("missing father name must not collide with a present one")
	}
	if DonorKey("Ram Lal", "Mohan") == base {
		t.Error("different father name must produce a different key")
	}
}

func TestDonorKeySeparatorAvoidsCollisions(t *testing.T) {
	// "a b"+"c" and "a"+"b c" must stay distinct keys.
	if DonorKey("a b", "c") == DonorKey("a", "b c") {
		t.Error("name boundaries collapsed into the same key")
	}
}

func TestItemKey(t *testing.T) {
	if ItemKey("  Ghee ") != "ghee" {
		t.Errorf("ItemKey = %q, want %q", ItemKey("  Ghee "), "ghee")
	}
}

func regexOf(t *testing.T, filter bson.M, field string) primitive.Regex {
	t.Helper()
	cond, ok := filter[field].(bson.M)
	if !ok {
		t.Fatalf("filter[%q] is not a condition: %#v", field, filter[field])
	}
	rx, ok := cond["$regex"].(primitive.Regex)
	if !ok {
		t.Fatalf("filter[%q] has no $regex: %#v", field, cond)
	}
	return rx
}

func TestDonorFilterEscapesMetacharacters(t *testing.T) {
	filter := donorFilter("Ram (Jr.)", "Shyam")

	rx := regexOf(t, filter, "donorName")
	if rx.Options != "i" {
		t.Errorf("regex options = %q, want %q", rx.Options, "i")
	}
	if !strings.HasPrefix(rx.Pattern, "^") || !strings.HasSuffix(rx.Pattern, "$") {
		t.Errorf("regex %q is not anchored", rx.Pattern)
	}
	if !strings.Contains(rx.Pattern, `\(`) || !strings.Contains(rx.Pattern, `\.`) {
		t.Errorf("regex %q does not escape metacharacters", rx.Pattern)
	}
}

func TestDonorFilterMissingFatherName(t *testing.T) {
	filter := donorFilter("Ram Lal", "   ")
	if _, ok := filter["fatherName"]; ok {
		t.Error("blank father name must not add a fatherName condition")
	}
	or, ok := filter["$or"].([]bson.M)
	if !ok || len(or) != 3 {
		t.Fatalf("expected 3-way $or for the absent father name, got %#v", filter["$or"])
	}
}
