package controllers

import (
	"context"
	"log"
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

// Every donation edit must say why. Audit-trail requirement.
const minNoteLength = 5

// ---------------- CREATE ----------------
func CreateDonation(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := adminIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin id"})
			return
		}

		var input struct {
			DonorID     string  `form:"donor_id" json:"donor_id" binding:"required"`
			BhandaraID  string  `form:"bhandara_id" json:"bhandara_id" binding:"required"`
			Amount      float64 `form:"amount" json:"amount" binding:"required"`
			PaymentMode string  `form:"payment_mode" json:"payment_mode" binding:"required"`
			Note        string  `form:"note" json:"note"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		donorID, err := primitive.ObjectIDFromHex(input.DonorID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donor id"})
			return
		}
		bhandaraID, err := primitive.ObjectIDFromHex(input.BhandaraID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bhandara id"})
			return
		}
		if !utils.ValidAmount(input.Amount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a finite number greater than 0"})
			return
		}
		// Bank transfers can only be recorded through an edit.
		if !models.ValidCreatePaymentMode(input.PaymentMode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment mode must be cash or upi"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := cfg.Collection(models.CollDonors).FindOne(ctx, bson.M{"_id": donorID}).Err(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "donor not found"})
			return
		}

		bhandara, err := findBhandara(ctx, cfg, bhandaraID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bhandara not found"})
			return
		}
		if bhandara.IsLocked {
			c.JSON(http.StatusConflict, gin.H{"error": "bhandara is locked, cannot add donations after the event date"})
			return
		}

		// --- Optional receipt upload ---
		receiptURL := ""
		if fileHeader, err := c.FormFile("receipt"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open receipt file"})
				return
			}
			receiptURL, err = utils.UploadReceiptToCloudinary(file, fileHeader)
			file.Close()
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "receipt upload failed", "details": err.Error()})
				return
			}
		}

		now := time.Now()
		donation := models.Donation{
			ID:            primitive.NewObjectID(),
			DonorID:       donorID,
			BhandaraID:    bhandaraID,
			Amount:        input.Amount,
			PaymentStatus: models.PaymentStatusDone,
			PaymentMode:   input.PaymentMode,
			Date:          now,
			Note:          strings.TrimSpace(input.Note),
			ReceiptURL:    receiptURL,
			AdminID:       adminID,
			IsLocked:      false,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if _, err := cfg.Collection(models.CollDonations).InsertOne(ctx, donation); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create donation"})
			return
		}

		c.JSON(http.StatusCreated, donation)
	}
}

// ---------------- LIST ----------------
func ListDonations(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.Collection(models.CollDonations)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// --- Build filter ---
		filter := bson.M{}
		if bhandaraID := c.Query("bhandara_id"); bhandaraID != "" {
			if oid, err := primitive.ObjectIDFromHex(bhandaraID); err == nil {
				filter["bhandara"] = oid
			}
		}
		if donorID := c.Query("donor_id"); donorID != "" {
			if oid, err := primitive.ObjectIDFromHex(donorID); err == nil {
				filter["donor"] = oid
			}
		}

		cursor, err := col.Find(ctx, filter, options.Find().SetSort(bson.M{"date": -1}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch donations"})
			return
		}

		var donations []models.Donation
		if err := cursor.All(ctx, &donations); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode donations"})
			return
		}

		if len(donations) == 0 {
			c.JSON(http.StatusOK, []models.Donation{})
			return
		}

		// --- Pick the most recently updated donation ---
		latest := donations[0]
		for _, d := range donations {
			if d.UpdatedAt.After(latest.UpdatedAt) {
				latest = d
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, donations)
	}
}

// loadDonationForWrite fetches the donation and enforces both lock
// gates: the bhandara date lock first, then the per-record flag against
// the actor's role. Writes the error response itself on failure.
func loadDonationForWrite(ctx context.Context, cfg *config.Config, c *gin.Context, id primitive.ObjectID) (*models.Donation, bool) {
	var donation models.Donation
	err := cfg.Collection(models.CollDonations).FindOne(ctx, bson.M{"_id": id}).Decode(&donation)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
		return nil, false
	}

	bhandara, err := findBhandara(ctx, cfg, donation.BhandaraID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bhandara not found"})
		return nil, false
	}
	if bhandara.IsLocked {
		c.JSON(http.StatusConflict, gin.H{"error": "bhandara is locked, cannot modify donations after the event date"})
		return nil, false
	}

	if !utils.CanModifyLocked(donation.IsLocked, c.GetString("role")) {
		c.JSON(http.StatusForbidden, gin.H{"error": "donation is locked, only super-admin can modify locked donations"})
		return nil, false
	}

	return &donation, true
}

// ---------------- UPDATE ----------------
func UpdateDonation(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
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
		// Updates may switch to any mode, including bank.
		if input.PaymentMode != nil && !models.ValidPaymentMode(*input.PaymentMode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment mode"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, ok := loadDonationForWrite(ctx, cfg, c, oid); !ok {
			return
		}

		update := bson.M{
			"note":          strings.TrimSpace(input.Note),
			"paymentStatus": models.PaymentStatusDone,
			"admin":         adminID,
			"updatedAt":     time.Now(),
		}
		if input.Amount != nil {
			update["amount"] = *input.Amount
		}
		if input.PaymentMode != nil {
			update["paymentMode"] = *input.PaymentMode
		}

		res, err := cfg.Collection(models.CollDonations).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update donation"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "donation updated", "id": oid.Hex()})
	}
}

// ---------------- DELETE ----------------
func DeleteDonation(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		donation, ok := loadDonationForWrite(ctx, cfg, c, oid)
		if !ok {
			return
		}

		res, err := cfg.Collection(models.CollDonations).DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil || res.DeletedCount == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete donation"})
			return
		}

		if donation.ReceiptURL != "" {
			if err := utils.DeleteFromCloudinary(donation.ReceiptURL); err != nil {
				log.Printf("Failed to delete receipt for donation %s: %v", oid.Hex(), err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "donation deleted", "id": oid.Hex()})
	}
}

// ---------------- LOCK ----------------
func LockDonation(cfg *config.Config) gin.HandlerFunc {
	return setDonationLock(cfg, true)
}

// ---------------- UNLOCK ----------------
// Super-admin only (enforced in routes).
func UnlockDonation(cfg *config.Config) gin.HandlerFunc {
	return setDonationLock(cfg, false)
}

func setDonationLock(cfg *config.Config, locked bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := cfg.Collection(models.CollDonations).UpdateOne(ctx,
			bson.M{"_id": oid},
			bson.M{"$set": bson.M{"isLocked": locked, "updatedAt": time.Now()}},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lock"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "donation not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "donation lock updated", "id": oid.Hex(), "is_locked": locked})
	}
}
