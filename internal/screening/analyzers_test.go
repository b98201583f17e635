package screening

import (
	"testing"
	"time"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectMediaNoAssets(t *testing.T) {
	assert.Nil(t, InspectMedia(nil))
	assert.Nil(t, InspectMedia([]string{}))
}

func TestInspectMediaCleanAssets(t *testing.T) {
	res := InspectMedia([]string{
		"https://cdn.example.com/photo.jpg",
		"https://cdn.example.com/video.mp4",
	})

	require.NotNil(t, res)
	assert.Empty(t, res.FlaggedAssets)
	assert.Equal(t, 2, res.TotalAssets)
}

func TestInspectMediaFlagsRiskyExtensions(t *testing.T) {
	res := InspectMedia([]string{
		"https://cdn.example.com/photo.jpg",
		"https://cdn.example.com/installer.exe",
		"https://cdn.example.com/receipt.pdf",
	})

	require.NotNil(t, res)
	assert.Equal(t, []string{"https://cdn.example.com/installer.exe"}, res.FlaggedAssets)
	assert.Equal(t, 3, res.TotalAssets)
}

func TestInspectMediaIsCaseInsensitive(t *testing.T) {
	res := InspectMedia([]string{"https://cdn.example.com/PAYLOAD.EXE"})

	require.NotNil(t, res)
	assert.Len(t, res.FlaggedAssets, 1)
}

func TestMatchWatchlistNoMatch(t *testing.T) {
	assert.Nil(t, MatchWatchlist("Community garden rebuild", "organizer@example.com"))
}

func TestMatchWatchlistMatchesCreatorEmail(t *testing.T) {
	res := MatchWatchlist("Help the children", "A medical fund", "donations@isis-relief.org")

	require.NotNil(t, res)
	assert.Contains(t, res.Matches, "isis")
}

func TestMatchWatchlistIsCaseInsensitive(t *testing.T) {
	res := MatchWatchlist("Support for the WAGNER GROUP veterans")

	require.NotNil(t, res)
	assert.Contains(t, res.Matches, "wagner group")
}

func TestScoreFraudCleanAccount(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	res := ScoreFraud(cfg, FraudInput{
		SyncRiskScore: 0,
		GoalAmount:    50_000,
		AccountAge:    90 * 24 * time.Hour,
		DurationDays:  30,
	})

	assert.Equal(t, 0.0, res.Score)
	assert.Empty(t, res.Reasons)
}

func TestScoreFraudSyncWeight(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	res := ScoreFraud(cfg, FraudInput{
		SyncRiskScore: 0.5,
		GoalAmount:    50_000,
		AccountAge:    90 * 24 * time.Hour,
		DurationDays:  30,
	})

	// 40% weight on the sync score
	assert.Equal(t, 0.2, res.Score)
	assert.Len(t, res.Reasons, 1)
}

func TestScoreFraudAllSignals(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	res := ScoreFraud(cfg, FraudInput{
		SyncRiskScore:  1.0,
		GoalAmount:     5_000_000,
		AccountAge:     24 * time.Hour,
		MissingContext: true,
		DurationDays:   120,
	})

	// 0.40 + 0.25 + 0.20 + 0.15 + 0.10 clamps to 1.0
	assert.Equal(t, 1.0, res.Score)
	assert.Len(t, res.Reasons, 5)
}

func TestScoreFraudIsDeterministic(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	in := FraudInput{
		SyncRiskScore:  0.3,
		GoalAmount:     2_000_000,
		AccountAge:     10 * 24 * time.Hour,
		MissingContext: true,
		DurationDays:   45,
	}

	first := ScoreFraud(cfg, in)
	second := ScoreFraud(cfg, in)

	assert.Equal(t, first, second)
}
