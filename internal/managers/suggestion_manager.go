package managers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"whisperbox/internal/config"
)

// suggestionPrompt is the single fixed prompt forwarded to the provider.
const suggestionPrompt = "Create a list of three open-ended and engaging questions formatted as a single string. " +
	"Each question should be separated by '||'. These questions are for an anonymous social messaging platform, " +
	"like Qooh.me, and should be suitable for a diverse audience. Avoid personal or sensitive topics, focusing " +
	"instead on universal themes that encourage friendly interaction."

const (
	suggestionTimeout = 5 * time.Second
	suggestionRetries = 2
	retryBackoff      = 250 * time.Millisecond
)

// SuggestionMgr is the contract for the generative-text provider.
type SuggestionMgr interface {
	SuggestQuestions(ctx context.Context) (string, error)
}

// GeminiManager calls the Gemini generateContent REST endpoint.
type GeminiManager struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// NewSuggestionManager creates a GeminiManager from the application config.
func NewSuggestionManager(cfg *config.Config) SuggestionMgr {
	log.Info("Initializing suggestion manager")
	return &GeminiManager{
		httpClient: &http.Client{Timeout: suggestionTimeout},
		baseURL:    cfg.GeminiBaseURL,
		model:      cfg.GeminiModel,
		apiKey:     cfg.GeminiAPIKey,
	}
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// SuggestQuestions forwards the fixed prompt to the provider and returns its
// raw pipe-delimited text. The call is retried once before giving up.
func (gm *GeminiManager) SuggestQuestions(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 0; attempt < suggestionRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		text, err := gm.generateContent(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Warnf("Suggestion attempt %d failed: %v", attempt+1, err)
	}

	return "", lastErr
}

func (gm *GeminiManager) generateContent(ctx context.Context) (string, error) {
	payload := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: suggestionPrompt}}}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding provider request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", gm.baseURL, gm.model, gm.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := gm.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		responseBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(responseBody))
	}

	var response generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decoding provider response: %w", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("provider returned no candidates")
	}

	var text strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	return text.String(), nil
}

// ParseSuggestions splits the provider text on the '||' delimiter, trims each
// segment and drops empty ones. Callers must not assume exactly three results.
func ParseSuggestions(raw string) []string {
	segments := strings.Split(raw, "||")
	suggestions := make([]string, 0, len(segments))

	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			continue
		}
		suggestions = append(suggestions, trimmed)
	}

	return suggestions
}
