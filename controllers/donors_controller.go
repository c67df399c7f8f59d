package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/phillip/bhandara-tracker-go/config"
	models "github.com/phillip/bhandara-tracker-go/models"
	utils "github.com/phillip/bhandara-tracker-go/utils"
)

// ---------------- CREATE ----------------
func CreateDonor(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			DonorName  string `json:"donor_name" binding:"required"`
			FatherName string `json:"father_name"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		donorName := utils.SanitizeString(input.DonorName)
		fatherName := utils.SanitizeString(input.FatherName)
		if len(donorName) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "donor name must be at least 2 characters"})
			return
		}
		if fatherName != "" && len(fatherName) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "father name must be at least 2 characters if provided"})
			return
		}

		donor := models.Donor{
			ID:         primitive.NewObjectID(),
			DonorName:  donorName,
			FatherName: fatherName,
			CreatedAt:  time.Now(),
		}

		col := cfg.Collection(models.CollDonors)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := col.InsertOne(ctx, donor); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create donor"})
			return
		}

		c.JSON(http.StatusCreated, donor)
	}
}

// ---------------- LIST ----------------
func ListDonors(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.Collection(models.CollDonors)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// --- Build filter ---
		filter := bson.M{}
		if q := c.Query("q"); q != "" {
			filter["donorName"] = bson.M{"$regex": q, "$options": "i"}
		}
		if father := c.Query("father_name"); father != "" {
			filter["fatherName"] = bson.M{"$regex": father, "$options": "i"}
		}

		cursor, err := col.Find(ctx, filter, options.Find().SetSort(bson.M{"donorName": 1}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch donors"})
			return
		}

		var donors []models.Donor
		if err := cursor.All(ctx, &donors); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode donors"})
			return
		}

		if len(donors) == 0 {
			c.JSON(http.StatusOK, []models.Donor{})
			return
		}

		// --- Pick the most recently created donor for caching headers ---
		latest := donors[0]
		for _, d := range donors {
			if d.CreatedAt.After(latest.CreatedAt) {
				latest = d
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.CreatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.CreatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, donors)
	}
}

// ---------------- GET ----------------
func GetDonor(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donor id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var donor models.Donor
		err = cfg.Collection(models.CollDonors).FindOne(ctx, bson.M{"_id": oid}).Decode(&donor)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "donor not found"})
			return
		}

		c.JSON(http.StatusOK, donor)
	}
}

// ---------------- UPDATE ----------------
// Name fields only; donors are never deleted.
func UpdateDonor(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donor id"})
			return
		}

		var input struct {
			DonorName  *string `json:"donor_name"`
			FatherName *string `json:"father_name"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		set := bson.M{}
		unset := bson.M{}
		if input.DonorName != nil {
			name := utils.SanitizeString(*input.DonorName)
			if len(name) < 2 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "donor name must be at least 2 characters"})
				return
			}
			set["donorName"] = name
		}
		if input.FatherName != nil {
			father := utils.SanitizeString(*input.FatherName)
			if father == "" {
				unset["fatherName"] = "" // clearing the father name is allowed
			} else if len(father) < 2 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "father name must be at least 2 characters if provided"})
				return
			} else {
				set["fatherName"] = father
			}
		}

		update := bson.M{}
		if len(set) > 0 {
			update["$set"] = set
		}
		if len(unset) > 0 {
			update["$unset"] = unset
		}
		if len(update) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		col := cfg.Collection(models.CollDonors)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		res, err := col.UpdateOne(ctx, bson.M{"_id": oid}, update)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update donor"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "donor not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "donor updated", "id": oid.Hex()})
	}
}

// ---------------- DONATIONS BY DONOR ----------------
func ListDonorDonations(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donor id"})
			return
		}

		col := cfg.Collection(models.CollDonations)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := col.Find(ctx, bson.M{"donor": oid}, options.Find().SetSort(bson.M{"date": -1}))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch donations"})
			return
		}

		var donations []models.Donation
		if err := cursor.All(ctx, &donations); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode donations"})
			return
		}
		if donations == nil {
			donations = []models.Donation{}
		}

		c.JSON(http.StatusOK, donations)
	}
}
