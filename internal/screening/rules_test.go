package screening

import (
	"testing"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func syncAllow(score float64) models.SyncCheckResult {
	return models.SyncCheckResult{
		Decision:  models.SyncDecisionAllow,
		RiskScore: score,
		Flags:     []string{},
	}
}

func TestEvaluateCleanCampaignApproved(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	outcome := Evaluate(cfg, syncAllow(0.10), models.AsyncCheckResult{})

	assert.Equal(t, models.DecisionApproved, outcome.Decision)
	assert.Equal(t, models.ComplianceApproved, outcome.ComplianceStatus)
	assert.Equal(t, 0.10, outcome.RiskScore)
}

func TestEvaluateTextModerationBlocks(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	outcome := Evaluate(cfg, syncAllow(0), models.AsyncCheckResult{
		TextModeration: &models.TextModerationResult{Flagged: true},
	})

	assert.Equal(t, models.DecisionBlocked, outcome.Decision)
	assert.Equal(t, models.ComplianceBlocked, outcome.ComplianceStatus)
	assert.GreaterOrEqual(t, outcome.RiskScore, 0.85)
	assert.Contains(t, outcome.Flags, FlagTextModeration)
}

func TestEvaluateWatchlistBlocksRegardlessOfScore(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	outcome := Evaluate(cfg, syncAllow(0), models.AsyncCheckResult{
		Watchlist: &models.WatchlistResult{Matches: []string{"isis"}},
	})

	assert.Equal(t, models.DecisionBlocked, outcome.Decision)
	assert.Contains(t, outcome.Flags, FlagWatchlistMatch)
	assert.GreaterOrEqual(t, outcome.RiskScore, 0.75)
}

func TestEvaluateMediaFlaggedTriggersReview(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	outcome := Evaluate(cfg, syncAllow(0), models.AsyncCheckResult{
		MediaAnalysis: &models.MediaAnalysisResult{
			FlaggedAssets: []string{"https://cdn.example.com/installer.exe"},
			TotalAssets:   3,
		},
	})

	assert.Equal(t, models.DecisionReview, outcome.Decision)
	assert.Equal(t, models.ComplianceInReview, outcome.ComplianceStatus)
	assert.Contains(t, outcome.Flags, FlagMediaFlagged)
	assert.Equal(t, 0.65, outcome.RiskScore)
}

func TestEvaluateCleanMediaDoesNotFlag(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	outcome := Evaluate(cfg, syncAllow(0), models.AsyncCheckResult{
		MediaAnalysis: &models.MediaAnalysisResult{FlaggedAssets: nil, TotalAssets: 2},
	})

	assert.Equal(t, models.DecisionApproved, outcome.Decision)
	assert.NotContains(t, outcome.Flags, FlagMediaFlagged)
}

func TestEvaluateFraudReviewFlag(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	outcome := Evaluate(cfg, syncAllow(0), models.AsyncCheckResult{
		FraudScore: models.FraudScoreResult{Score: 0.50, Reasons: []string{"young account"}},
	})

	assert.Equal(t, models.DecisionReview, outcome.Decision)
	assert.Contains(t, outcome.Flags, FlagFraudReview)
	assert.Equal(t, 0.50, outcome.RiskScore)
}

func TestEvaluateFraudBlockFlagStaysReviewBelowBlockThreshold(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	outcome := Evaluate(cfg, syncAllow(0), models.AsyncCheckResult{
		FraudScore: models.FraudScoreResult{Score: 0.80, Reasons: []string{"multiple signals"}},
	})

	// A fraud score at block level raises the floor and the flag, but only
	// the 0.85 aggregate threshold (or a moderation/watchlist flag) blocks.
	assert.Equal(t, models.DecisionReview, outcome.Decision)
	assert.Contains(t, outcome.Flags, FlagFraudBlock)
	assert.Equal(t, 0.80, outcome.RiskScore)
}

func TestEvaluateHighAggregateRiskBlocks(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	outcome := Evaluate(cfg, syncAllow(0.90), models.AsyncCheckResult{})

	assert.Equal(t, models.DecisionBlocked, outcome.Decision)
}

func TestEvaluateSyncFlagsCarriedThrough(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	sync := models.SyncCheckResult{
		Decision:  models.SyncDecisionReview,
		RiskScore: 0.45,
		Flags:     []string{FlagHighGoalAmount, FlagMissingContext},
	}

	outcome := Evaluate(cfg, sync, models.AsyncCheckResult{})

	assert.Contains(t, outcome.Flags, FlagHighGoalAmount)
	assert.Contains(t, outcome.Flags, FlagMissingContext)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	sync := models.SyncCheckResult{
		Decision:  models.SyncDecisionReview,
		RiskScore: 0.45,
		Flags:     []string{FlagSuspiciousLanguage},
	}
	async := models.AsyncCheckResult{
		MediaAnalysis: &models.MediaAnalysisResult{FlaggedAssets: []string{"a.exe"}, TotalAssets: 1},
		FraudScore:    models.FraudScoreResult{Score: 0.48, Reasons: []string{"young account"}},
	}

	first := Evaluate(cfg, sync, async)
	second := Evaluate(cfg, sync, async)

	assert.Equal(t, first, second)
}

func TestEvaluateRiskScoreAlwaysInRange(t *testing.T) {
	cfg := config.LoadScreeningConfig()

	outcome := Evaluate(cfg, syncAllow(1.0), models.AsyncCheckResult{
		TextModeration: &models.TextModerationResult{Flagged: true},
		Watchlist:      &models.WatchlistResult{Matches: []string{"taliban"}},
		FraudScore:     models.FraudScoreResult{Score: 1.0},
	})

	assert.LessOrEqual(t, outcome.RiskScore, 1.0)
	assert.GreaterOrEqual(t, outcome.RiskScore, 0.0)
	assert.Equal(t, models.DecisionBlocked, outcome.Decision)
}
