package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/phillip/bhandara-tracker-go/config"
)

func responseError(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode response %s: %v", body, err)
	}
	return resp.Error
}

func TestCreateDonationRejectsBankMode(t *testing.T) {
	body := fmt.Sprintf(`{"donor_id":%q,"bhandara_id":%q,"amount":100,"payment_mode":"bank"}`,
		primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())
	c, w := jsonContext(t, http.MethodPost, body)

	CreateDonation(&config.Config{})(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if msg := responseError(t, w.Body.Bytes()); msg != "payment mode must be cash or upi" {
		t.Errorf("error = %q", msg)
	}
}

func TestCreateDonationRejectsUnknownMode(t *testing.T) {
	body := fmt.Sprintf(`{"donor_id":%q,"bhandara_id":%q,"amount":100,"payment_mode":"cheque"}`,
		primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())
	c, w := jsonContext(t, http.MethodPost, body)

	CreateDonation(&config.Config{})(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUpdateDonationRequiresNote(t *testing.T) {
	cases := map[string]string{
		"missing":    `{"amount":50}`,
		"short":      `{"amount":50,"note":"abcd"}`,
		"whitespace": `{"amount":50,"note":"   ab   "}`,
	}
	for name, body := range cases {
		c, w := jsonContext(t, http.MethodPatch, body)
		c.Params = gin.Params{{Key: "id", Value: primitive.NewObjectID().Hex()}}

		UpdateDonation(&config.Config{})(c)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s note: status = %d, want %d", name, w.Code, http.StatusBadRequest)
			continue
		}
		if msg := responseError(t, w.Body.Bytes()); msg != "note is mandatory and must be at least 5 characters" {
			t.Errorf("%s note: error = %q", name, msg)
		}
	}
}

func TestUpdateDonationRejectsUnknownMode(t *testing.T) {
	// A valid note gets past the note gate; the unknown mode is what
	// fails. Bank is not rejected here, unlike on creation.
	body := `{"note":"corrected amount","payment_mode":"cheque"}`
	c, w := jsonContext(t, http.MethodPatch, body)
	c.Params = gin.Params{{Key: "id", Value: primitive.NewObjectID().Hex()}}

	UpdateDonation(&config.Config{})(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if msg := responseError(t, w.Body.Bytes()); msg != "invalid payment mode" {
		t.Errorf("error = %q, want the mode error, not the note error", msg)
	}
}

func TestUpdateBhandaraSpendingRequiresNote(t *testing.T) {
	c, w := jsonContext(t, http.MethodPatch, `{"amount":50,"note":"abcd"}`)
	c.Params = gin.Params{{Key: "spendingId", Value: primitive.NewObjectID().Hex()}}

	UpdateBhandaraSpending(&config.Config{})(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if msg := responseError(t, w.Body.Bytes()); msg != "note is mandatory and must be at least 5 characters" {
		t.Errorf("error = %q", msg)
	}
}
