package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/phillip/bhandara-tracker-go/config"
	models "github.com/phillip/bhandara-tracker-go/models"
	utils "github.com/phillip/bhandara-tracker-go/utils"
)

// Bhandara names are stored first-letter capitalized.
func normalizeBhandaraName(raw string) string {
	name := utils.SanitizeString(raw)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
}

func parseBhandaraDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ---------------- CREATE ----------------
func CreateBhandara(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name        string `json:"name" binding:"required"`
			Date        string `json:"date" binding:"required"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		name := normalizeBhandaraName(input.Name)
		if len(name) < 3 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bhandara name must be at least 3 characters"})
			return
		}

		date, ok := parseBhandaraDate(input.Date)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use RFC3339 or YYYY-MM-DD"})
			return
		}

		bhandara := models.Bhandara{
			ID:          primitive.NewObjectID(),
			Name:        name,
			Date:        date,
			Description: utils.SanitizeString(input.Description),
			Status:      models.BhandaraStatusActive,
			CreatedAt:   time.Now(),
		}

		col := cfg.Collection(models.CollBhandaras)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := col.InsertOne(ctx, bhandara); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create bhandara"})
			return
		}

		bhandara.IsLocked = utils.IsBhandaraLocked(bhandara.Date, cfg.LockBhandaras)
		c.JSON(http.StatusCreated, bhandara)
	}
}

// ---------------- LIST ----------------
// Newest first, merged with per-bhandara collection/spending stats.
func ListBhandaras(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.Collection(models.CollBhandaras)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"date": -1}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch bhandaras"})
			return
		}

		var bhandaras []models.Bhandara
		if err := cursor.All(ctx, &bhandaras); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode bhandaras"})
			return
		}
		if len(bhandaras) == 0 {
			c.JSON(http.StatusOK, []gin.H{})
			return
		}

		// Stats are best-effort: a failing aggregation must not hide
		// the bhandara list.
		statsByID := map[primitive.ObjectID]*BhandaraStats{}
		if stats, err := collectBhandaraStats(ctx, cfg); err == nil {
			statsByID = stats
		}

		out := make([]gin.H, 0, len(bhandaras))
		for _, b := range bhandaras {
			b.IsLocked = utils.IsBhandaraLocked(b.Date, cfg.LockBhandaras)
			stat := statsByID[b.ID]
			if stat == nil {
				stat = &BhandaraStats{}
			}
			out = append(out, gin.H{
				"bhandara": b,
				"stats":    stat,
			})
		}

		c.JSON(http.StatusOK, out)
	}
}

// ---------------- GET ----------------
// Detail view: the bhandara plus its donations and spendings.
func GetBhandara(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bhandara id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		bhandara, err := findBhandara(ctx, cfg, oid)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "bhandara not found"})
			return
		}

		var donations []models.Donation
		cursor, err := cfg.Collection(models.CollDonations).Find(ctx, bson.M{"bhandara": oid}, options.Find().SetSort(bson.M{"date": -1}))
		if err == nil {
			_ = cursor.All(ctx, &donations)
		}
		if donations == nil {
			donations = []models.Donation{}
		}

		var spendings []models.BhandaraSpending
		cursor, err = cfg.Collection(models.CollBhandaraSpendings).Find(ctx, bson.M{"bhandara": oid}, options.Find().SetSort(bson.M{"date": -1}))
		if err == nil {
			_ = cursor.All(ctx, &spendings)
		}
		if spendings == nil {
			spendings = []models.BhandaraSpending{}
		}

		stats, _ := bhandaraStatsByID(ctx, cfg, oid)

		c.JSON(http.StatusOK, gin.H{
			"bhandara":  bhandara,
			"donations": donations,
			"spendings": spendings,
			"stats":     stats,
		})
	}
}

// ---------------- UPDATE ----------------
func UpdateBhandara(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bhandara id"})
			return
		}

		var input struct {
			Name        *string `json:"name"`
			Date        *string `json:"date"`
			Description *string `json:"description"`
			Status      *string `json:"status"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		existing, err := findBhandara(ctx, cfg, oid)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "bhandara not found"})
			return
		}
		if existing.IsLocked {
			c.JSON(http.StatusConflict, gin.H{"error": "bhandara is locked, cannot update information after the event date"})
			return
		}

		update := bson.M{}
		if input.Name != nil {
			name := normalizeBhandaraName(*input.Name)
			if len(name) < 3 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bhandara name must be at least 3 characters"})
				return
			}
			update["name"] = name
		}
		if input.Date != nil {
			date, ok := parseBhandaraDate(*input.Date)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			update["date"] = date
		}
		if input.Description != nil {
			update["description"] = utils.SanitizeString(*input.Description)
		}
		if input.Status != nil {
			if *input.Status != models.BhandaraStatusActive && *input.Status != models.BhandaraStatusClosed {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			update["status"] = *input.Status
		}
		if len(update) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		col := cfg.Collection(models.CollBhandaras)
		res, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update bhandara"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "bhandara not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "bhandara updated", "id": oid.Hex()})
	}
}

// ---------------- DELETE ----------------
// Refused while donations reference the bhandara.
func DeleteBhandara(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bhandara id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := findBhandara(ctx, cfg, oid); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "bhandara not found"})
			return
		}

		count, err := cfg.Collection(models.CollDonations).CountDocuments(ctx, bson.M{"bhandara": oid})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check donations"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "cannot delete bhandara, there are donations associated with it"})
			return
		}

		res, err := cfg.Collection(models.CollBhandaras).DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil || res.DeletedCount == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete bhandara"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "bhandara deleted", "id": oid.Hex()})
	}
}
