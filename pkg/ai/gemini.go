package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"booksphere/pkg/domain"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
)

// GeminiClient calls the Google AI Studio (Gemini) API. It implements Advisor.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient constructs a client with the provided API key.
func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key required")
	}
	model = normalizeModel(model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGeminiBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Recommend asks the model for up to three matches from the available list.
// IDs outside the list are dropped before returning.
func (c *GeminiClient) Recommend(ctx context.Context, query string, available []domain.Book) ([]domain.Suggestion, error) {
	if len(available) == 0 {
		return nil, nil
	}
	var sb strings.Builder
	for _, b := range available {
		fmt.Fprintf(&sb, "ID: %s, Title: %s, Author: %s, Category: %s\n", b.ID, b.Title, b.Author, b.Category)
	}
	userPrompt := fmt.Sprintf(
		"Based on the user's request: %q, recommend up to 3 books from the following list. Only select books that truly match.\n\nList of Available Books:\n%s\nReturn JSON of the form {\"recommendations\":[{\"bookId\":\"...\",\"reason\":\"...\"}]}.",
		query, sb.String(),
	)
	text, err := c.generate(ctx, "", userPrompt, true)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Recommendations []domain.Suggestion `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &parsed); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	known := make(map[string]struct{}, len(available))
	for _, b := range available {
		known[b.ID] = struct{}{}
	}
	out := make([]domain.Suggestion, 0, len(parsed.Recommendations))
	for _, s := range parsed.Recommendations {
		if _, ok := known[s.BookID]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// GenerateBookMetadata drafts a description, category, and tags for a title.
func (c *GeminiClient) GenerateBookMetadata(ctx context.Context, title, author string) (domain.BookMetadata, error) {
	userPrompt := fmt.Sprintf(
		"Generate a compelling book description (approx 80 words), a list of 5 relevant tags, and a genre category for a book titled %q by %q. Return JSON of the form {\"description\":\"...\",\"category\":\"...\",\"tags\":[\"...\"]}.",
		title, author,
	)
	text, err := c.generate(ctx, "", userPrompt, true)
	if err != nil {
		return domain.BookMetadata{}, err
	}
	var meta domain.BookMetadata
	if err := json.Unmarshal([]byte(stripFences(text)), &meta); err != nil {
		return domain.BookMetadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

// Chat answers a storefront assistant message.
func (c *GeminiClient) Chat(ctx context.Context, message string, history []string) (string, error) {
	systemPrompt := "You are a helpful bookstore assistant named \"BookSphere AI\". Answer politely and concisely. If asked for recommendations, suggest general genres or ask for preferences."
	userPrompt := message
	if len(history) > 0 {
		userPrompt = fmt.Sprintf("Previous conversation:\n%s\n\nUser: %s", strings.Join(history, "\n"), message)
	}
	return c.generate(ctx, systemPrompt, userPrompt, false)
}

func (c *GeminiClient) generate(ctx context.Context, systemPrompt, userPrompt string, jsonOutput bool) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: userPrompt}},
			},
		},
	}
	if strings.TrimSpace(systemPrompt) != "" {
		reqBody.SystemInstruction = &content{
			Parts: []part{{Text: systemPrompt}},
		}
	}
	if jsonOutput {
		reqBody.GenerationConfig = &generationConfig{ResponseMIMEType: "application/json"}
	}
	var resp generateResponse
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	if err := c.doJSON(ctx, url, reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	return strings.TrimPrefix(model, "models/")
}

// stripFences removes a markdown code fence the model sometimes wraps JSON in.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func (c *GeminiClient) doJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return fmt.Errorf("gemini api error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("gemini api error: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
