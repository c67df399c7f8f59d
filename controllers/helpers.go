package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/phillip/bhandara-tracker-go/config"
	models "github.com/phillip/bhandara-tracker-go/models"
	utils "github.com/phillip/bhandara-tracker-go/utils"
)

// sentinel for handler helpers that already wrote the response
var errValidation = errors.New("validation failed")

// validNote gates every donation/spending edit: the audit note is
// mandatory and must carry at least minNoteLength characters after
// trimming.
func validNote(note string) bool {
	return len(strings.TrimSpace(note)) >= minNoteLength
}

// adminIDFromContext reads the authenticated admin's id set by the auth
// middleware.
func adminIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("admin_id"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// findBhandara loads a bhandara and fills its derived lock state.
func findBhandara(ctx context.Context, cfg *config.Config, id primitive.ObjectID) (*models.Bhandara, error) {
	var bhandara models.Bhandara
	err := cfg.Collection(models.CollBhandaras).FindOne(ctx, bson.M{"_id": id}).Decode(&bhandara)
	if err != nil {
		return nil, err
	}
	bhandara.IsLocked = utils.IsBhandaraLocked(bhandara.Date, cfg.LockBhandaras)
	return &bhandara, nil
}
