package models

// Decisions produced by the sync checker.
const (
	SyncDecisionAllow  = "allow"
	SyncDecisionReview = "review"
	SyncDecisionBlock  = "block"
)

// Decisions produced by the rules engine.
const (
	DecisionApproved = "approved"
	DecisionReview   = "review"
	DecisionBlocked  = "blocked"
)

// Issue severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Issue is a single finding from the sync checker.
type Issue struct {
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Severity string `json:"severity"`
}

// SyncCheckResult is the outcome of the fast in-process check run at
// submission time. It is snapshotted onto the screening job at enqueue and
// never mutated afterwards.
type SyncCheckResult struct {
	Decision  string   `json:"decision"`
	RiskScore float64  `json:"risk_score"`
	Flags     []string `json:"flags"`
	Issues    []Issue  `json:"issues"`
	Summary   string   `json:"summary"`
}

// TextModerationResult maps the external moderation service's response.
type TextModerationResult struct {
	Flagged        bool               `json:"flagged"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
}

// MediaAnalysisResult reports risky attachments. A nil result means there
// was nothing to check, which is distinct from "checked and clean".
type MediaAnalysisResult struct {
	FlaggedAssets []string `json:"flagged_assets"`
	TotalAssets   int      `json:"total_assets"`
}

// WatchlistResult reports sanctioned-term matches.
type WatchlistResult struct {
	Matches []string `json:"matches"`
}

// FraudScoreResult is the deterministic fraud probability with the
// contributions that produced it.
type FraudScoreResult struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// AsyncCheckResult collects the analyzer findings for one screening pass.
// Optional sub-results are nil when the analyzer was skipped or had nothing
// to evaluate.
type AsyncCheckResult struct {
	TextModeration *TextModerationResult `json:"text_moderation,omitempty"`
	MediaAnalysis  *MediaAnalysisResult  `json:"media_analysis,omitempty"`
	Watchlist      *WatchlistResult      `json:"watchlist,omitempty"`
	FraudScore     FraudScoreResult      `json:"fraud_score"`
}

// ScreeningOutcome is the final merged decision for one screening pass.
type ScreeningOutcome struct {
	Decision         string   `json:"decision"`
	ComplianceStatus string   `json:"compliance_status"`
	RiskScore        float64  `json:"risk_score"`
	Summary          string   `json:"summary"`
	Flags            []string `json:"flags"`
}
