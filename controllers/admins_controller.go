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
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	config "github.com/phillip/bhandara-tracker-go/config"
	middleware "github.com/phillip/bhandara-tracker-go/middleware"
	models "github.com/phillip/bhandara-tracker-go/models"
	utils "github.com/phillip/bhandara-tracker-go/utils"
)

var pinPattern = regexp.MustCompile(`^\d{5}$`)

const authCookieMaxAge = 7 * 24 * 60 * 60 // seconds, matches token TTL

// ---------------- REGISTER ----------------
// Bootstrap only: creates the first super-admin while the admins
// collection is empty. Later admins go through CreateAdmin.
func Register(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.Collection(models.CollAdmins)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		count, err := col.CountDocuments(ctx, bson.M{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check existing admins"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin registration is closed"})
			return
		}

		admin, err := insertAdmin(ctx, col, c, models.RoleSuperAdmin)
		if err != nil {
			return // response already written
		}

		c.JSON(http.StatusCreated, gin.H{"id": admin.ID.Hex(), "username": admin.Username, "role": admin.Role})
	}
}

// ---------------- CREATE ----------------
// Super-admin only (enforced in routes).
func CreateAdmin(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.Collection(models.CollAdmins)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		admin, err := insertAdmin(ctx, col, c, "")
		if err != nil {
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": admin.ID.Hex(), "username": admin.Username, "role": admin.Role})
	}
}

// insertAdmin validates the payload, hashes the PIN and inserts the
// admin. Writes the error response itself and returns a non-nil error
// when the caller should stop.
func insertAdmin(ctx context.Context, col *mongo.Collection, c *gin.Context, forceRole string) (*models.Admin, error) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Pin      string `json:"pin" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, err
	}

	username := strings.ToUpper(strings.TrimSpace(input.Username))
	if len(username) < 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must be at least 3 characters"})
		return nil, errValidation
	}
	if !pinPattern.MatchString(input.Pin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be exactly 5 digits"})
		return nil, errValidation
	}

	role := input.Role
	if forceRole != "" {
		role = forceRole
	}
	if role == "" {
		role = models.RoleAdmin
	}
	if role != models.RoleAdmin && role != models.RoleSuperAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return nil, errValidation
	}

	if err := col.FindOne(ctx, bson.M{"username": username}).Err(); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return nil, errValidation
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Pin), 12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash PIN"})
		return nil, err
	}

	admin := models.Admin{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Pin:       string(hashed),
		Role:      role,
		CreatedAt: time.Now(),
	}
	if _, err := col.InsertOne(ctx, admin); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create admin"})
		return nil, err
	}
	return &admin, nil
}

// ---------------- LOGIN ----------------
func Login(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Username string `json:"username" binding:"required"`
			Pin      string `json:"pin" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		col := cfg.Collection(models.CollAdmins)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var admin models.Admin
		username := strings.ToUpper(strings.TrimSpace(input.Username))
		err := col.FindOne(ctx, bson.M{"username": username}).Decode(&admin)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(admin.Pin), []byte(input.Pin)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := utils.GenerateToken(cfg.JWTSecret, admin.ID.Hex(), admin.Username, admin.Role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
			return
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(middleware.AuthCookieName, token, authCookieMaxAge, "/", "", false, true)

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"admin": gin.H{
				"id":       admin.ID.Hex(),
				"username": admin.Username,
				"role":     admin.Role,
			},
			"message": "login successful",
		})
	}
}

// ---------------- LOGOUT ----------------
func Logout(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// ---------------- ME ----------------
func CurrentAdmin(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"id":       c.GetString("admin_id"),
			"username": c.GetString("username"),
			"role":     c.GetString("role"),
		})
	}
}
