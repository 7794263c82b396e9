package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/local/sensei/api/config"
	"github.com/local/sensei/api/services"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Handler struct {
	cfg      *config.Config
	content  *services.ContentService
	reports  *services.ReportService
	exports  *services.ExportService
	telegram *services.TelegramService
}

func New(db *gorm.DB, cfg *config.Config) *Handler {
	var gateway services.ModelGateway
	if cfg.ModelProvider == "openai" {
		gateway = services.NewModelGateway("openai", cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		gateway = services.NewModelGateway("gemini", cfg.GeminiAPIKey, cfg.GeminiModel)
	}

	return &Handler{
		cfg:      cfg,
		content:  services.NewContentService(gateway),
		reports:  services.NewReportService(db),
		exports:  services.NewExportService(db),
		telegram: services.NewTelegramService(cfg.TelegramBotToken, db),
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"model_provider": h.cfg.ModelProvider,
	})
}

// GenerateContent runs the content pipeline. The boundary never rejects for
// pipeline failures: callers always receive 200 with either the content or
// an error field to branch on.
func (h *Handler) GenerateContent(c *gin.Context) {
	var req services.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, err := h.content.Generate(c.Request.Context(), req)
	if err != nil {
		var invalid *services.InvalidOutputError
		switch {
		case errors.Is(err, services.ErrUnknownContentType):
			c.JSON(http.StatusOK, gin.H{"error": fmt.Sprintf("Unknown content type: %s", req.ContentType)})
		case errors.As(err, &invalid):
			log.Error().Str("content_type", req.ContentType).Str("raw", invalid.Raw).Msg("Model returned invalid output")
			c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Str("content_type", req.ContentType).Msg("Content generation failed")
			c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, content)
}

// GenerateFromDocument extracts text from an uploaded PDF and runs free-text
// generation grounded on it.
func (h *Handler) GenerateFromDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are allowed"})
		return
	}

	if file.Size > h.cfg.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds the upload limit"})
		return
	}

	userPrompt := c.PostForm("prompt")
	if strings.TrimSpace(userPrompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing prompt"})
		return
	}

	uploadDir := "./storage/uploads"
	os.MkdirAll(uploadDir, 0755)

	path := filepath.Join(uploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), file.Filename))
	if err := c.SaveUploadedFile(file, path); err != nil {
		log.Error().Err(err).Msg("Failed to save file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}
	defer os.Remove(path)

	text, err := services.ExtractTextFromPDF(path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to extract text")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to extract text from PDF"})
		return
	}

	req := services.ContentRequest{
		ContentType: string(services.ContentTypeText),
		PromptData: services.PromptData{
			UserPrompt: services.BuildDocumentPrompt(text, userPrompt),
		},
	}

	content, err := h.content.Generate(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("Document generation failed")
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, content)
}

type GenerateReportRequest struct {
	ClassID string `json:"classId" binding:"required"`
}

// GenerateClassReport aggregates class metrics and persists the report
func (h *Handler) GenerateClassReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing classId.", "kind": services.KindInvalidArgument})
		return
	}

	report, err := h.reports.GenerateReport(c.Request.Context(), req.ClassID)
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

// GetClassReport returns the latest persisted report for a class
func (h *Handler) GetClassReport(c *gin.Context) {
	report, err := h.reports.LatestReport(c.Request.Context(), c.Param("classId"))
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

type ExportRequest struct {
	ClassID string `json:"classId" binding:"required"`
	Format  string `json:"format" binding:"required"`
}

// ExportClassData streams an anonymized json/csv export of class records
func (h *Handler) ExportClassData(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing classId or format (json/csv).", "kind": services.KindInvalidArgument})
		return
	}

	data, contentType, err := h.exports.Export(c.Request.Context(), req.ClassID, req.Format)
	if err != nil {
		respondReportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=class_%s_export.%s", req.ClassID, req.Format))
	c.Data(http.StatusOK, contentType, data)
}

// TelegramWebhook ingests student messages forwarded by Telegram
func (h *Handler) TelegramWebhook(c *gin.Context) {
	var update services.TelegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil || update.Message == nil {
		c.JSON(http.StatusOK, gin.H{"message": "OK - No message found"})
		return
	}

	if err := h.telegram.HandleUpdate(c.Request.Context(), update); err != nil {
		log.Error().Err(err).Msg("Failed to process Telegram message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message processed successfully"})
}

type SendMessageRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// SendMessage relays a professor message to a student via Telegram
func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'chatId' or 'text' in the request data."})
		return
	}

	if err := h.telegram.SendMessage(c.Request.Context(), req.ChatID, req.Text); err != nil {
		log.Error().Err(err).Msg("Failed to send message via Telegram")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message via Telegram."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent successfully."})
}

func respondReportError(c *gin.Context, err error) {
	var reportErr *services.ReportError
	if !errors.As(err, &reportErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "kind": services.KindInternal})
		return
	}
	c.JSON(statusForKind(reportErr.Kind), gin.H{"error": reportErr.Message, "kind": reportErr.Kind})
}

func statusForKind(kind string) int {
	switch kind {
	case services.KindInvalidArgument:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindFailedPrecondition:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
