package screening

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/models"
)

// moderationInputLimit caps the text sent to the external service.
const moderationInputLimit = 4000

// TextModerator is the external content-moderation boundary. A nil result
// with a nil error means the moderator is not configured; callers treat both
// errors and absence as the neutral unflagged default.
type TextModerator interface {
	Moderate(ctx context.Context, text string) (*models.TextModerationResult, error)
}

type moderationRequest struct {
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged        bool               `json:"flagged"`
		CategoryScores map[string]float64 `json:"category_scores"`
	} `json:"results"`
}

// ModerationClient calls an OpenAI-moderations-shaped HTTP endpoint.
type ModerationClient struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewModerationClient(cfg *config.Config) *ModerationClient {
	timeout := cfg.ModerationTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ModerationClient{
		apiURL: cfg.ModerationAPIURL,
		apiKey: cfg.ModerationAPIKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *ModerationClient) Moderate(ctx context.Context, text string) (*models.TextModerationResult, error) {
	if c.apiKey == "" {
		return nil, nil
	}
	text = trimToRuneBoundary(text, moderationInputLimit)

	payload, err := json.Marshal(moderationRequest{Input: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("moderation API error: status %d", resp.StatusCode)
	}

	var parsed moderationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Results) == 0 {
		return nil, errors.New("moderation API returned no results")
	}

	return &models.TextModerationResult{
		Flagged:        parsed.Results[0].Flagged,
		CategoryScores: parsed.Results[0].CategoryScores,
	}, nil
}
