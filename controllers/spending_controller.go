package controllers

import (
	"context"
	"net/http"
	"regexp"
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

// case-insensitive whole-name match, metacharacters escaped
func nameFilterCI(name string) bson.M {
	return bson.M{"name": bson.M{"$regex": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(strings.TrimSpace(name)) + "$",
		Options: "i",
	}}}
}

// ---------------- CREATE ITEM ----------------
// Interactive creation rejects duplicates; bulk import reuses instead.
func CreateSpendingItem(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		name := utils.SanitizeString(input.Name)
		if len(name) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "spending item name must be at least 2 characters"})
			return
		}

		col := cfg.Collection(models.CollSpendingItems)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := col.FindOne(ctx, nameFilterCI(name)).Err(); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "a spending item with this name already exists"})
			return
		}

		now := time.Now()
		item := models.SpendingItem{
			ID:          primitive.NewObjectID(),
			Name:        name,
			Description: utils.SanitizeString(input.Description),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := col.InsertOne(ctx, item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create spending item"})
			return
		}

		c.JSON(http.StatusCreated, item)
	}
}

// ---------------- LIST ITEMS ----------------
func ListSpendingItems(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.Collection(models.CollSpendingItems)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch spending items"})
			return
		}

		var items []models.SpendingItem
		if err := cursor.All(ctx, &items); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode spending items"})
			return
		}
		if len(items) == 0 {
			c.JSON(http.StatusOK, []models.SpendingItem{})
			return
		}

		latest := items[0]
		for _, item := range items {
			if item.UpdatedAt.After(latest.UpdatedAt) {
				latest = item
			}
		}
		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, items)
	}
}

// ---------------- UPDATE ITEM ----------------
func UpdateSpendingItem(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spending item id"})
			return
		}

		var input struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		col := cfg.Collection(models.CollSpendingItems)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		update := bson.M{"updatedAt": time.Now()}
		if input.Name != nil {
			name := utils.SanitizeString(*input.Name)
			if len(name) < 2 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "spending item name must be at least 2 characters"})
				return
			}
			// Another item may not already own this name.
			var duplicate models.SpendingItem
			if err := col.FindOne(ctx, nameFilterCI(name)).Decode(&duplicate); err == nil && duplicate.ID != oid {
				c.JSON(http.StatusConflict, gin.H{"error": "a spending item with this name already exists"})
				return
			}
			update["name"] = name
		}
		if input.Description != nil {
			update["description"] = utils.SanitizeString(*input.Description)
		}
		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		res, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update spending item"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "spending item not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "spending item updated", "id": oid.Hex()})
	}
}

// ---------------- DELETE ITEM ----------------
func DeleteSpendingItem(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spending item id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		count, err := cfg.Collection(models.CollBhandaraSpendings).CountDocuments(ctx, bson.M{"spendingItem": oid})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check spending records"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "cannot delete spending item, there are spending records associated with it"})
			return
		}

		res, err := cfg.Collection(models.CollSpendingItems).DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete spending item"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "spending item not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "spending item deleted", "id": oid.Hex()})
	}
}

// ---------------- CREATE SPENDING ----------------
func CreateBhandaraSpending(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := adminIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin id"})
			return
		}

		var input struct {
			SpendingItemID string  `json:"spending_item_id" binding:"required"`
			Amount         float64 `json:"amount" binding:"required"`
			PaymentMode    string  `json:"payment_mode" binding:"required"`
			Note           string  `json:"note"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		bhandaraID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bhandara id"})
			return
		}
		itemID, err := primitive.ObjectIDFromHex(input.SpendingItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spending item id"})
			return
		}
		if !utils.ValidAmount(input.Amount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a finite number greater than 0"})
			return
		}
		// Spending accepts bank on create, unlike donations.
		if !models.ValidPaymentMode(input.PaymentMode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment mode"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := cfg.Collection(models.CollSpendingItems).FindOne(ctx, bson.M{"_id": itemID}).Err(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "spending item not found"})
			return
		}

		bhandara, err := findBhandara(ctx, cfg, bhandaraID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bhandara not found"})
			return
		}
		if bhandara.IsLocked {
			c.JSON(http.StatusConflict, gin.H{"error": "bhandara is locked, cannot add spending after the event date"})
			return
		}

		now := time.Now()
		spending := models.BhandaraSpending{
			ID:             primitive.NewObjectID(),
			SpendingItemID: itemID,
			BhandaraID:     bhandaraID,
			Amount:         input.Amount,
			PaymentMode:    input.PaymentMode,
			Date:           now,
			Note:           strings.TrimSpace(input.Note),
			AdminID:        adminID,
			IsLocked:       false,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if _, err := cfg.Collection(models.CollBhandaraSpendings).InsertOne(ctx, spending); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create spending"})
			return
		}

		c.JSON(http.StatusCreated, spending)
	}
}

// ---------------- LIST SPENDINGS ----------------
func ListBhandaraSpendings(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		bhandaraID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bhandara id"})
			return
		}

		col := cfg.Collection(models.CollBhandaraSpendings)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Find(ctx, bson.M{"bhandara": bhandaraID}, options.Find().SetSort(bson.M{"date": -1}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch spendings"})
			return
		}

		var spendings []models.BhandaraSpending
		if err := cursor.All(ctx, &spendings); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode spendings"})
			return
		}
		if spendings == nil {
			spendings = []models.BhandaraSpending{}
		}

		c.JSON(http.StatusOK, spendings)
	}
}

// loadSpendingForWrite mirrors loadDonationForWrite for spendings.
func loadSpendingForWrite(ctx context.Context, cfg *config.Config, c *gin.Context, id primitive.ObjectID) (*models.BhandaraSpending, bool) {
	var spending models.BhandaraSpending
	err := cfg.Collection(models.CollBhandaraSpendings).FindOne(ctx, bson.M{"_id": id}).Decode(&spending)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "spending not found"})
		return nil, false
	}

	bhandara, err := findBhandara(ctx, cfg, spending.BhandaraID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bhandara not found"})
		return nil, false
	}
	if bhandara.IsLocked {
		c.JSON(http.StatusConflict, gin.H{"error": "bhandara is locked, cannot modify spending after the event date"})
		return nil, false
	}

	if !utils.CanModifyLocked(spending.IsLocked, c.GetString("role")) {
		c.JSON(http.StatusForbidden, gin.H{"error": "spending is locked, only super-admin can modify locked spending"})
		return nil, false
	}

	return &spending, true
}

// ---------------- UPDATE SPENDING ----------------
func UpdateBhandaraSpending(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("spendingId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spending id"})
			return
		}
		adminID, ok := adminIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin id"})
			return
		}

		var input struct {
			Amount      *float64 `json:"amount"`
			PaymentMode *string  `json:"payment_mode"`
			Note        string   `json:"note"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if !validNote(input.Note) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "note is mandatory and must be at least 5 characters"})
			return
		}
		if input.Amount != nil && !utils.ValidAmount(*input.Amount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a finite number greater than 0"})
			return
		}
		if input.PaymentMode != nil && !models.ValidPaymentMode(*input.PaymentMode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment mode"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, ok := loadSpendingForWrite(ctx, cfg, c, oid); !ok {
			return
		}

		update := bson.M{
			"note":      strings.TrimSpace(input.Note),
			"admin":     adminID,
			"updatedAt": time.Now(),
		}
		if input.Amount != nil {
			update["amount"] = *input.Amount
		}
		if input.PaymentMode != nil {
			update["paymentMode"] = *input.PaymentMode
		}

		res, err := cfg.Collection(models.CollBhandaraSpendings).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update spending"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "spending not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "spending updated", "id": oid.Hex()})
	}
}

// ---------------- DELETE SPENDING ----------------
func DeleteBhandaraSpending(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("spendingId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spending id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, ok := loadSpendingForWrite(ctx, cfg, c, oid); !ok {
			return
		}

		res, err := cfg.Collection(models.CollBhandaraSpendings).DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil || res.DeletedCount == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete spending"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "spending deleted", "id": oid.Hex()})
	}
}

// ---------------- LOCK / UNLOCK SPENDING ----------------
func LockBhandaraSpending(cfg *config.Config) gin.HandlerFunc {
	return setSpendingLock(cfg, true)
}

// Super-admin only (enforced in routes).
func UnlockBhandaraSpending(cfg *config.Config) gin.HandlerFunc {
	return setSpendingLock(cfg, false)
}

func setSpendingLock(cfg *config.Config, locked bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("spendingId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spending id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := cfg.Collection(models.CollBhandaraSpendings).UpdateOne(ctx,
			bson.M{"_id": oid},
			bson.M{"$set": bson.M{"isLocked": locked, "updatedAt": time.Now()}},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lock"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "spending not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "spending lock updated", "id": oid.Hex(), "is_locked": locked})
	}
}
