package core

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"swapmeet.ie/marketplace/internal/logging"
)

const (
	defaultModelName = "gemini-1.5-flash-latest"
	maxImageBytes    = 10 << 20
)

// Model is a chat-style completion endpoint answering in JSON.
type Model interface {
	GenerateJSON(ctx context.Context, systemInstruction, prompt string, imageURLs []string) (string, error)
}

// LLMService talks to Gemini. Images are downloaded and sent inline.
type LLMService struct {
	client     *genai.Client
	httpClient *http.Client
	modelName  string
	logger     logging.Logger
}

func NewLLMService(ctx context.Context, apiKey string, httpClient *http.Client, logger logging.Logger) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &LLMService{
		client:     client,
		httpClient: httpClient,
		modelName:  defaultModelName,
		logger:     logger.With("component", "llm"),
	}, nil
}

func (s *LLMService) Close() {
	if s.client == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		s.logger.Error(context.Background(), "error closing GenAI client", "error", err)
	}
}

func (s *LLMService) GenerateJSON(ctx context.Context, systemInstruction, prompt string, imageURLs []string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	temp := float32(0.7)
	maxTokens := int32(1000)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens:  &maxTokens,
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	parts := []genai.Part{genai.Text(prompt)}
	for _, url := range imageURLs {
		blob, err := s.fetchImage(ctx, url)
		if err != nil {
			return "", err
		}
		parts = append(parts, blob)
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			s.logger.Debug(ctx, "skipping non-text response part", "type", fmt.Sprintf("%T", part))
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("gemini returned an empty reply")
	}
	return text.String(), nil
}

func (s *LLMService) fetchImage(ctx context.Context, url string) (genai.Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return genai.Blob{}, fmt.Errorf("invalid image url %q: %w", url, err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return genai.Blob{}, fmt.Errorf("failed to fetch image %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return genai.Blob{}, fmt.Errorf("failed to fetch image %q: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return genai.Blob{}, fmt.Errorf("failed to read image %q: %w", url, err)
	}

	mimeType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	return genai.Blob{MIMEType: mimeType, Data: data}, nil
}
