package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GenerateParams are the per-content-type generation knobs passed to the
// gateway. Structured types request JSON response mode with deterministic
// sampling and no categorical safety filtering; free-text generation blocks
// medium-and-above harmful categories.
type GenerateParams struct {
	JSONResponse bool
	Temperature  float64
	BlockHarmful bool
}

// ModelGateway is the outbound generative-model boundary
type ModelGateway interface {
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)
	GetProviderName() string
}

// GeminiProvider calls the Gemini generateContent REST API
type GeminiProvider struct {
	APIKey string
	Model  string
}

// OpenAIProvider calls the OpenAI chat completions API
type OpenAIProvider struct {
	APIKey string
	Model  string
}

func NewModelGateway(provider, apiKey, model string) ModelGateway {
	switch strings.ToLower(provider) {
	case "openai":
		return &OpenAIProvider{
			APIKey: apiKey,
			Model:  model,
		}
	case "gemini":
		return &GeminiProvider{
			APIKey: apiKey,
			Model:  model,
		}
	default:
		return &GeminiProvider{
			APIKey: apiKey,
			Model:  model,
		}
	}
}

func (g *GeminiProvider) GetProviderName() string {
	return "gemini"
}

var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", g.Model, g.APIKey)

	if params.JSONResponse {
		prompt += "\n\nPlease provide the response in a valid JSON format."
	}

	generationConfig := map[string]interface{}{
		"temperature": params.Temperature,
	}
	if params.JSONResponse {
		generationConfig["responseMimeType"] = "application/json"
	}

	threshold := "BLOCK_NONE"
	if params.BlockHarmful {
		threshold = "BLOCK_MEDIUM_AND_ABOVE"
	}
	safetySettings := make([]map[string]string, 0, len(harmCategories))
	for _, category := range harmCategories {
		safetySettings = append(safetySettings, map[string]string{
			"category":  category,
			"threshold": threshold,
		})
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
		"generationConfig": generationConfig,
		"safetySettings":   safetySettings,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var textBuilder strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		textBuilder.WriteString(part.Text)
	}

	return textBuilder.String(), nil
}

func (o *OpenAIProvider) GetProviderName() string {
	return "openai"
}

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	url := "https://api.openai.com/v1/chat/completions"

	if params.JSONResponse {
		prompt += "\n\nPlease provide the response in a valid JSON format."
	}

	reqBody := map[string]interface{}{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  4096,
		"temperature": params.Temperature,
	}
	if params.JSONResponse {
		reqBody["response_format"] = map[string]string{
			"type": "json_object",
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.APIKey))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}
