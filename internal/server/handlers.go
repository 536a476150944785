package server

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Lllllllleong/financialstatementflow/internal/logger"
	"github.com/Lllllllleong/financialstatementflow/internal/models"
	"github.com/Lllllllleong/financialstatementflow/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	msgStored      = "CSV file extracted and saved with reference"
	msgStoreFailed = "Failed to save CSV file: "
)

// RecordReader reads back persisted records and CSV files.
type RecordReader interface {
	Record(ctx context.Context, id string) (*models.StatementRecord, error)
	File(ctx context.Context, fileID string) ([]byte, error)
}

// Handler serves the statement endpoints.
type Handler struct {
	pipeline  services.Runner
	records   RecordReader
	maxUpload int64
}

// NewHandler creates the handler. maxUpload <= 0 disables the body size cap.
func NewHandler(pipeline services.Runner, records RecordReader, maxUpload int64) *Handler {
	return &Handler{pipeline: pipeline, records: records, maxUpload: maxUpload}
}

// AnalyzeFinancials extracts, analyses and, unless ?model=false, models the
// uploaded statement.
func (h *Handler) AnalyzeFinancials(c *gin.Context) {
	withModel, _ := strconv.ParseBool(c.DefaultQuery("model", "true"))

	res, filename, ok := h.run(c, services.Options{Analyze: true, Model: withModel})
	if !ok {
		return
	}

	resp := models.AnalyzeFinancialsResponse{
		CSV:            res.CSV,
		Analysis:       res.Analysis,
		FinancialModel: res.Model,
		Filename:       filename,
	}
	if res.Persisted() {
		resp.MongoDBFileID = res.FileID
		resp.MongoDBDocumentID = res.RecordID
		resp.Message = msgStored
	} else {
		resp.Error = msgStoreFailed + res.PersistErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// BuildFinancialModel extracts and models the uploaded statement.
func (h *Handler) BuildFinancialModel(c *gin.Context) {
	res, filename, ok := h.run(c, services.Options{Model: true})
	if !ok {
		return
	}

	resp := models.BuildFinancialModelResponse{
		CSV:      res.CSV,
		Model:    res.Model,
		Filename: filename,
	}
	if res.Persisted() {
		resp.MongoDBFileID = res.FileID
		resp.MongoDBDocumentID = res.RecordID
		resp.Message = msgStored
	} else {
		resp.Error = msgStoreFailed + res.PersistErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// ConvertPDF returns the uploaded PDF as standard base64.
func (h *Handler) ConvertPDF(c *gin.Context) {
	pdf, _, ok := h.readPDF(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.ConvertPDFResponse{
		Base64Encoded: base64.StdEncoding.EncodeToString(pdf),
	})
}

// GetRecord returns one stored reference record.
func (h *Handler) GetRecord(c *gin.Context) {
	rec, err := h.records.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetRecordCSV returns the CSV file a record points at.
func (h *Handler) GetRecordCSV(c *gin.Context) {
	ctx := c.Request.Context()
	rec, err := h.records.Record(ctx, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	data, err := h.records.File(ctx, rec.StoredFileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+rec.CSVFilename+"\"")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (h *Handler) run(c *gin.Context, opts services.Options) (*services.Result, string, bool) {
	pdf, filename, ok := h.readPDF(c)
	if !ok {
		return nil, "", false
	}

	ctx := logger.WithFilename(c.Request.Context(), filename)
	res, err := h.pipeline.Run(ctx, services.Input{Filename: filename, PDF: pdf, Options: opts})
	if err != nil {
		logger.WithContext(ctx).Error("Pipeline failed.", "error", err)
		abortWithError(c, err)
		return nil, "", false
	}
	return res, filename, true
}

// readPDF reads the "file" form field. The extension check happens before
// the body of the file is read.
func (h *Handler) readPDF(c *gin.Context) ([]byte, string, bool) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error:     "File too large",
				Code:      CodeInvalidFile,
				RequestID: GetRequestID(c),
			})
			return nil, "", false
		}
		abortBadRequest(c, CodeMissingFile, "No file provided")
		return nil, "", false
	}
	defer file.Close()

	if !services.IsPDF(header.Filename) {
		abortBadRequest(c, CodeInvalidFile, MsgNotPDF)
		return nil, "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		abortBadRequest(c, CodeInvalidFile, "Failed to read file")
		return nil, "", false
	}
	return data, header.Filename, true
}
