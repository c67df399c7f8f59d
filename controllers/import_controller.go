package controllers

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/phillip/bhandara-tracker-go/config"
	importer "github.com/phillip/bhandara-tracker-go/importer"
	models "github.com/phillip/bhandara-tracker-go/models"
	utils "github.com/phillip/bhandara-tracker-go/utils"
)

// importPreconditions authenticates the caller, validates the bhandara
// id and rejects locked bhandaras. Precondition failures return the
// zero-rows-processed shape so the client always gets results.errors.
func importPreconditions(ctx context.Context, cfg *config.Config, c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	adminID, ok := adminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, importer.Failure("Unauthorized"))
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	rawID := c.Param("id")
	if !utils.IsValidObjectID(rawID) {
		c.JSON(http.StatusBadRequest, importer.Failure("Invalid bhandara ID"))
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	bhandaraID, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, importer.Failure("Invalid bhandara ID"))
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	bhandara, err := findBhandara(ctx, cfg, bhandaraID)
	if err != nil {
		c.JSON(http.StatusNotFound, importer.Failure("Bhandara not found"))
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	if bhandara.IsLocked {
		c.JSON(http.StatusConflict, importer.Failure("Bhandara is locked, cannot import after the event date"))
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	return bhandaraID, adminID, true
}

// importFile pulls the uploaded workbook out of the multipart form.
func importFile(c *gin.Context) (multipart.File, func() error, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, importer.Failure("No file uploaded"))
		return nil, nil, false
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, importer.Failure("Only .xlsx files are supported"))
		return nil, nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, importer.Failure("Could not read uploaded file"))
		return nil, nil, false
	}
	return file, file.Close, true
}

// mergeParseErrors prepends sheet-level parse errors to the pipeline
// result and bumps the failed counter to match.
func mergeParseErrors(resp importer.ImportResponse, parseErrors []string) importer.ImportResponse {
	if len(parseErrors) == 0 {
		return resp
	}
	resp.Results.Errors = append(parseErrors, resp.Results.Errors...)
	resp.Results.Failed = len(resp.Results.Errors)
	return resp
}

func sendImportSummary(cfg *config.Config, kind, bhandaraID string, resp importer.ImportResponse) {
	if cfg.ReportEmail == "" {
		return
	}
	subject := fmt.Sprintf("%s import finished for bhandara %s", kind, bhandaraID)
	body := resp.Message
	if len(resp.Results.Errors) > 0 {
		body += "\n\n" + strings.Join(resp.Results.Errors, "\n")
	}
	if err := utils.SendEmail(cfg.ReportEmail, subject, body); err != nil {
		log.Printf("import summary email failed: %v", err)
	}
}

// ---------------- IMPORT DONATIONS ----------------
func ImportDonations(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		bhandaraID, adminID, ok := importPreconditions(ctx, cfg, c)
		if !ok {
			return
		}
		file, closeFile, ok := importFile(c)
		if !ok {
			return
		}
		defer closeFile()

		rows, parseErrors, err := importer.ParseDonationSheet(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, importer.Failure(err.Error()))
			return
		}
		if len(rows) == 0 && len(parseErrors) == 0 {
			c.JSON(http.StatusBadRequest, importer.Failure("No data rows found in the sheet"))
			return
		}

		resp := importer.RunDonationImport(ctx,
			cfg.Collection(models.CollDonors),
			cfg.Collection(models.CollDonations),
			rows, bhandaraID, adminID)
		resp = mergeParseErrors(resp, parseErrors)

		go sendImportSummary(cfg, "Donation", bhandaraID.Hex(), resp)

		c.JSON(http.StatusOK, resp)
	}
}

// ---------------- IMPORT SPENDINGS ----------------
func ImportSpendings(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		bhandaraID, adminID, ok := importPreconditions(ctx, cfg, c)
		if !ok {
			return
		}
		file, closeFile, ok := importFile(c)
		if !ok {
			return
		}
		defer closeFile()

		rows, parseErrors, err := importer.ParseSpendingSheet(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, importer.Failure(err.Error()))
			return
		}
		if len(rows) == 0 && len(parseErrors) == 0 {
			c.JSON(http.StatusBadRequest, importer.Failure("No data rows found in the sheet"))
			return
		}

		resp := importer.RunSpendingImport(ctx,
			cfg.Collection(models.CollSpendingItems),
			cfg.Collection(models.CollBhandaraSpendings),
			rows, bhandaraID, adminID)
		resp = mergeParseErrors(resp, parseErrors)

		go sendImportSummary(cfg, "Spending", bhandaraID.Hex(), resp)

		c.JSON(http.StatusOK, resp)
	}
}
