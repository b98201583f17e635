package screening

import (
	"fmt"
	"strings"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/models"
)

// Evaluate merges the stored sync result with the analyzer findings into one
// final outcome. Pure and deterministic. Flag-based overrides dominate the
// numeric thresholds: a moderation or watchlist hit blocks regardless of an
// otherwise-low aggregate score.
func Evaluate(cfg config.ScreeningConfig, sync models.SyncCheckResult, async models.AsyncCheckResult) models.ScreeningOutcome {
	risk := sync.RiskScore
	flags := append([]string(nil), sync.Flags...)
	var notes []string

	if async.TextModeration != nil && async.TextModeration.Flagged {
		risk = floorAt(risk, 0.85)
		flags = appendFlag(flags, FlagTextModeration)
		notes = append(notes, "text moderation flagged the description")
	}

	if async.MediaAnalysis != nil && len(async.MediaAnalysis.FlaggedAssets) > 0 {
		risk = floorAt(risk, 0.65)
		flags = appendFlag(flags, FlagMediaFlagged)
		notes = append(notes, fmt.Sprintf("%d of %d media asset(s) flagged",
			len(async.MediaAnalysis.FlaggedAssets), async.MediaAnalysis.TotalAssets))
	}

	if async.Watchlist != nil && len(async.Watchlist.Matches) > 0 {
		risk = floorAt(risk, 0.75)
		flags = appendFlag(flags, FlagWatchlistMatch)
		notes = append(notes, "watchlist match: "+strings.Join(async.Watchlist.Matches, ", "))
	}

	if fraud := async.FraudScore; fraud.Score > 0 {
		risk = floorAt(risk, fraud.Score)
		if fraud.Score >= cfg.FraudBlockThreshold {
			flags = appendFlag(flags, FlagFraudBlock)
			notes = append(notes, fmt.Sprintf("fraud score %.2f at block level", fraud.Score))
		} else if fraud.Score >= cfg.FraudReviewThreshold {
			flags = appendFlag(flags, FlagFraudReview)
			notes = append(notes, fmt.Sprintf("fraud score %.2f at review level", fraud.Score))
		}
	}

	risk = Round2(clamp01(risk))

	decision := models.DecisionApproved
	switch {
	case risk >= cfg.RulesBlockThreshold || hasFlag(flags, FlagTextModeration) || hasFlag(flags, FlagWatchlistMatch):
		decision = models.DecisionBlocked
	case risk >= cfg.RulesReviewThreshold || hasFlag(flags, FlagMediaFlagged) || hasFlag(flags, FlagFraudReview):
		decision = models.DecisionReview
	}

	return models.ScreeningOutcome{
		Decision:         decision,
		ComplianceStatus: statusForDecision(decision),
		RiskScore:        risk,
		Summary:          outcomeSummary(decision, risk, notes),
		Flags:            flags,
	}
}

func statusForDecision(decision string) string {
	switch decision {
	case models.DecisionBlocked:
		return models.ComplianceBlocked
	case models.DecisionReview:
		return models.ComplianceInReview
	default:
		return models.ComplianceApproved
	}
}

func outcomeSummary(decision string, risk float64, notes []string) string {
	if len(notes) == 0 {
		return fmt.Sprintf("Screening %s with risk %.2f.", decision, risk)
	}
	return truncate(fmt.Sprintf("Screening %s with risk %.2f: %s.", decision, risk, strings.Join(notes, "; ")), 500)
}

func floorAt(risk, floor float64) float64 {
	if risk < floor {
		return floor
	}
	return risk
}

func appendFlag(flags []string, flag string) []string {
	if hasFlag(flags, flag) {
		return flags
	}
	return append(flags, flag)
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
