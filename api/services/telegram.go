package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/local/sensei/api/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TelegramUpdate mirrors the subset of the Telegram webhook payload we use
type TelegramUpdate struct {
	Message *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username string `json:"username"`
		} `json:"from"`
		Text string `json:"text"`
	} `json:"message"`
}

// TelegramService bridges the platform and the Telegram Bot API: outbound
// messages to students and inbound webhook ingestion.
type TelegramService struct {
	botToken string
	db       *gorm.DB
}

func NewTelegramService(botToken string, db *gorm.DB) *TelegramService {
	return &TelegramService{botToken: botToken, db: db}
}

// SendMessage delivers a message to a student's chat via the Bot API
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		return fmt.Errorf("bot token is not configured on the server")
	}
	if chatID == "" || text == "" {
		return fmt.Errorf("missing 'chatId' or 'text'")
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	reqBody := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Telegram API error (%d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// HandleUpdate stores an inbound student interaction. Updates without a
// message are ignored.
func (s *TelegramService) HandleUpdate(ctx context.Context, update TelegramUpdate) error {
	if update.Message == nil {
		return nil
	}

	interaction := models.StudentInteraction{
		ID:               uuid.New().String(),
		Type:             "telegram_message",
		StudentID:        fmt.Sprintf("telegram:%d", update.Message.Chat.ID),
		TelegramUsername: update.Message.From.Username,
		Text:             update.Message.Text,
		CreatedAt:        time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&interaction).Error; err != nil {
		return fmt.Errorf("failed to save interaction: %w", err)
	}

	log.Info().Str("student_id", interaction.StudentID).Str("username", interaction.TelegramUsername).Msg("Telegram message saved")
	return nil
}
