package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/phillip/bhandara-tracker-go/config"
	models "github.com/phillip/bhandara-tracker-go/models"
)

type PaymentModeBreakdown struct {
	Cash float64 `bson:"cash" json:"cash"`
	UPI  float64 `bson:"upi" json:"upi"`
	Bank float64 `bson:"bank" json:"bank"`
}

// BhandaraStats aggregates one bhandara's money flow. DonorCount is the
// number of distinct donors, not the donation row count.
type BhandaraStats struct {
	TotalCollected float64              `json:"total_collected"`
	TotalSpent     float64              `json:"total_spent"`
	NetBalance     float64              `json:"net_balance"`
	TotalDonations int                  `json:"total_donations"`
	TotalSpendings int                  `json:"total_spendings"`
	DonorCount     int                  `json:"donor_count"`
	Collected      PaymentModeBreakdown `json:"collected_by_mode"`
	Spent          PaymentModeBreakdown `json:"spent_by_mode"`
}

type moneyAggRow struct {
	ID         primitive.ObjectID `bson:"_id"`
	Total      float64            `bson:"total"`
	Count      int                `bson:"count"`
	DonorCount int                `bson:"donorCount"`
	Cash       float64            `bson:"cash"`
	UPI        float64            `bson:"upi"`
	Bank       float64            `bson:"bank"`
}

func modeSum(mode string) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{"$paymentMode", mode}},
		"$amount",
		0,
	}}}
}

func donationGroupStage() bson.M {
	return bson.M{"$group": bson.M{
		"_id":    "$bhandara",
		"total":  bson.M{"$sum": "$amount"},
		"count":  bson.M{"$sum": 1},
		"donors": bson.M{"$addToSet": "$donor"},
		"cash":   modeSum(models.PaymentModeCash),
		"upi":    modeSum(models.PaymentModeUPI),
		"bank":   modeSum(models.PaymentModeBank),
	}}
}

func spendingGroupStage() bson.M {
	return bson.M{"$group": bson.M{
		"_id":   "$bhandara",
		"total": bson.M{"$sum": "$amount"},
		"count": bson.M{"$sum": 1},
		"cash":  modeSum(models.PaymentModeCash),
		"upi":   modeSum(models.PaymentModeUPI),
		"bank":  modeSum(models.PaymentModeBank),
	}}
}

var donorCountProjection = bson.M{"$project": bson.M{
	"total":      1,
	"count":      1,
	"donorCount": bson.M{"$size": "$donors"},
	"cash":       1,
	"upi":        1,
	"bank":       1,
}}

func runMoneyAggregation(ctx context.Context, cfg *config.Config, collection string, pipeline []bson.M) ([]moneyAggRow, error) {
	cursor, err := cfg.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []moneyAggRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// collectBhandaraStats aggregates donations and spendings for every
// bhandara in two pipelines and merges them per bhandara id.
func collectBhandaraStats(ctx context.Context, cfg *config.Config) (map[primitive.ObjectID]*BhandaraStats, error) {
	donationRows, err := runMoneyAggregation(ctx, cfg, models.CollDonations,
		[]bson.M{donationGroupStage(), donorCountProjection})
	if err != nil {
		return nil, err
	}
	spendingRows, err := runMoneyAggregation(ctx, cfg, models.CollBhandaraSpendings,
		[]bson.M{spendingGroupStage()})
	if err != nil {
		return nil, err
	}

	stats := make(map[primitive.ObjectID]*BhandaraStats)
	get := func(id primitive.ObjectID) *BhandaraStats {
		if s, ok := stats[id]; ok {
			return s
		}
		s := &BhandaraStats{}
		stats[id] = s
		return s
	}

	for _, row := range donationRows {
		s := get(row.ID)
		s.TotalCollected = row.Total
		s.TotalDonations = row.Count
		s.DonorCount = row.DonorCount
		s.Collected = PaymentModeBreakdown{Cash: row.Cash, UPI: row.UPI, Bank: row.Bank}
	}
	for _, row := range spendingRows {
		s := get(row.ID)
		s.TotalSpent = row.Total
		s.TotalSpendings = row.Count
		s.Spent = PaymentModeBreakdown{Cash: row.Cash, UPI: row.UPI, Bank: row.Bank}
	}
	for _, s := range stats {
		s.NetBalance = s.TotalCollected - s.TotalSpent
	}
	return stats, nil
}

func bhandaraStatsByID(ctx context.Context, cfg *config.Config, id primitive.ObjectID) (*BhandaraStats, error) {
	match := bson.M{"$match": bson.M{"bhandara": id}}

	donationRows, err := runMoneyAggregation(ctx, cfg, models.CollDonations,
		[]bson.M{match, donationGroupStage(), donorCountProjection})
	if err != nil {
		return nil, err
	}
	spendingRows, err := runMoneyAggregation(ctx, cfg, models.CollBhandaraSpendings,
		[]bson.M{match, spendingGroupStage()})
	if err != nil {
		return nil, err
	}

	stats := &BhandaraStats{}
	if len(donationRows) > 0 {
		row := donationRows[0]
		stats.TotalCollected = row.Total
		stats.TotalDonations = row.Count
		stats.DonorCount = row.DonorCount
		stats.Collected = PaymentModeBreakdown{Cash: row.Cash, UPI: row.UPI, Bank: row.Bank}
	}
	if len(spendingRows) > 0 {
		row := spendingRows[0]
		stats.TotalSpent = row.Total
		stats.TotalSpendings = row.Count
		stats.Spent = PaymentModeBreakdown{Cash: row.Cash, UPI: row.UPI, Bank: row.Bank}
	}
	stats.NetBalance = stats.TotalCollected - stats.TotalSpent
	return stats, nil
}

// ---------------- OVERALL ----------------
func GetOverallStats(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		totalBhandaras, err := cfg.Collection(models.CollBhandaras).CountDocuments(ctx, bson.M{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch stats"})
			return
		}
		activeBhandaras, _ := cfg.Collection(models.CollBhandaras).CountDocuments(ctx, bson.M{"status": models.BhandaraStatusActive})
		totalDonors, _ := cfg.Collection(models.CollDonors).CountDocuments(ctx, bson.M{})
		totalDonations, _ := cfg.Collection(models.CollDonations).CountDocuments(ctx, bson.M{})

		sevenDaysAgo := time.Now().AddDate(0, 0, -7)
		recentDonations, _ := cfg.Collection(models.CollDonations).CountDocuments(ctx, bson.M{
			"createdAt": bson.M{"$gte": sevenDaysAgo},
		})

		totalCollected := sumAmounts(ctx, cfg, models.CollDonations)
		totalSpent := sumAmounts(ctx, cfg, models.CollBhandaraSpendings)

		perBhandara, err := collectBhandaraStats(ctx, cfg)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not aggregate bhandara stats"})
			return
		}
		byBhandara := make(map[string]*BhandaraStats, len(perBhandara))
		for id, s := range perBhandara {
			byBhandara[id.Hex()] = s
		}

		c.JSON(http.StatusOK, gin.H{
			"overall": gin.H{
				"total_bhandaras":  totalBhandaras,
				"active_bhandaras": activeBhandaras,
				"total_donors":     totalDonors,
				"total_donations":  totalDonations,
				"total_collected":  totalCollected,
				"total_spent":      totalSpent,
				"net_balance":      totalCollected - totalSpent,
				"recent_donations": recentDonations,
			},
			"bhandaras": byBhandara,
		})
	}
}

// ---------------- BY BHANDARA ----------------
func GetBhandaraStats(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bhandara id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		stats, err := bhandaraStatsByID(ctx, cfg, oid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not aggregate stats"})
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

func sumAmounts(ctx context.Context, cfg *config.Config, collection string) float64 {
	cursor, err := cfg.Collection(collection).Aggregate(ctx, []bson.M{
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}},
	})
	if err != nil {
		return 0
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil || len(rows) == 0 {
		return 0
	}
	return rows[0].Total
}
