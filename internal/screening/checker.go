package screening

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/models"
)

// Keyword tiers scanned by the sync checker. High-risk terms cover weapons,
// extremism and laundering language; medium-risk terms cover the usual
// guaranteed-return and anonymous-crypto scam phrasing.
var HighRiskTerms = []string{
	"bomb", "explosive", "grenade", "firearm", "ammunition", "weapon",
	"jihad", "martyrdom operation", "ethnic cleansing",
	"money laundering", "launder", "ransom", "hitman",
	"drug trafficking", "human trafficking",
}

var MediumRiskTerms = []string{
	"guaranteed return", "guaranteed profit", "double your money",
	"risk-free investment", "insider opportunity",
	"anonymous donation only", "crypto only", "untraceable",
	"wire directly", "western union", "gift cards only",
}

const (
	highRiskBasePenalty    = 0.65
	highRiskExtraPenalty   = 0.05
	mediumRiskBasePenalty  = 0.25
	mediumRiskExtraPenalty = 0.03
	highGoalPenalty        = 0.10
	missingContextPenalty  = 0.10

	summaryMaxLen = 280
)

// Flags emitted by the sync checker.
const (
	FlagHighRiskLanguage   = "high_risk_language"
	FlagSuspiciousLanguage = "suspicious_language"
	FlagHighGoalAmount     = "high_goal_amount"
	FlagMissingContext     = "missing_context"
)

// SyncInput carries the campaign fields visible to the fast path. All plain
// values; the checker does no I/O.
type SyncInput struct {
	Title        string
	Description  string
	Category     string
	Beneficiary  string
	GoalAmount   int64
	Currency     string
	CreatorEmail string
}

// RunSyncCheck scans campaign text and metadata for risk signals and returns
// a provisional decision. It never fails: clean input yields zero risk and an
// allow decision.
func RunSyncCheck(cfg config.ScreeningConfig, in SyncInput) models.SyncCheckResult {
	haystack := strings.ToLower(strings.Join([]string{
		in.Title, in.Description, in.Category, in.Beneficiary,
	}, " "))

	var (
		score  float64
		flags  []string
		issues []models.Issue
	)

	if hits := countTermHits(haystack, HighRiskTerms); hits > 0 {
		score += highRiskBasePenalty + float64(hits-1)*highRiskExtraPenalty
		flags = append(flags, FlagHighRiskLanguage)
		issues = append(issues, models.Issue{
			Code:     FlagHighRiskLanguage,
			Detail:   fmt.Sprintf("%d high-risk term(s) detected", hits),
			Severity: models.SeverityHigh,
		})
	}

	if hits := countTermHits(haystack, MediumRiskTerms); hits > 0 {
		score += mediumRiskBasePenalty + float64(hits-1)*mediumRiskExtraPenalty
		flags = append(flags, FlagSuspiciousLanguage)
		issues = append(issues, models.Issue{
			Code:     FlagSuspiciousLanguage,
			Detail:   fmt.Sprintf("%d suspicious term(s) detected", hits),
			Severity: models.SeverityMedium,
		})
	}

	if in.GoalAmount > cfg.LargeGoalAmount {
		score += highGoalPenalty
		flags = append(flags, FlagHighGoalAmount)
		issues = append(issues, models.Issue{
			Code:     FlagHighGoalAmount,
			Detail:   fmt.Sprintf("goal amount %d %s exceeds the large-goal threshold", in.GoalAmount, in.Currency),
			Severity: models.SeverityLow,
		})
	}

	if strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Beneficiary) == "" {
		score += missingContextPenalty
		flags = append(flags, FlagMissingContext)
		issues = append(issues, models.Issue{
			Code:     FlagMissingContext,
			Detail:   "category or beneficiary description is missing",
			Severity: models.SeverityLow,
		})
	}

	score = Round2(clamp01(score))

	decision := models.SyncDecisionAllow
	switch {
	case score >= cfg.SyncBlockThreshold:
		decision = models.SyncDecisionBlock
	case score >= cfg.SyncReviewThreshold:
		decision = models.SyncDecisionReview
	}

	return models.SyncCheckResult{
		Decision:  decision,
		RiskScore: score,
		Flags:     flags,
		Issues:    issues,
		Summary:   syncSummary(decision, score, issues),
	}
}

func countTermHits(haystack string, terms []string) int {
	hits := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			hits++
		}
	}
	return hits
}

func syncSummary(decision string, score float64, issues []models.Issue) string {
	if len(issues) == 0 {
		return fmt.Sprintf("Sync check passed with risk %.2f.", score)
	}
	details := make([]string, len(issues))
	for i, iss := range issues {
		details[i] = iss.Detail
	}
	s := fmt.Sprintf("Sync check (%s, risk %.2f): %s", decision, score, strings.Join(details, "; "))
	return truncate(s, summaryMaxLen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return trimToRuneBoundary(s, max-3) + "..."
}

// trimToRuneBoundary cuts s to at most max bytes without splitting a rune.
func trimToRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Round2 rounds a risk score to two decimal places. All persisted scores go
// through this.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
