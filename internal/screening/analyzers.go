package screening

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/models"
)

// Flags emitted by the rules engine for analyzer findings.
const (
	FlagTextModeration = "text_moderation_flag"
	FlagMediaFlagged   = "media_flagged"
	FlagWatchlistMatch = "watchlist_match"
	FlagFraudBlock     = "fraud_block"
	FlagFraudReview    = "fraud_review"
)

// File extensions never acceptable as campaign media.
var riskyExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true, ".scr": true,
	".msi": true, ".jar": true, ".apk": true, ".dll": true, ".sh": true,
	".zip": true, ".rar": true, ".7z": true,
}

// Watchlist of sanctioned names and organizations. Matching is plain
// lower-cased substring containment over campaign text and creator email.
var WatchlistTerms = []string{
	"al-qaeda", "al qaeda", "isis", "isil", "daesh", "taliban",
	"boko haram", "hezbollah", "wagner group", "sinaloa cartel",
	"aryan brotherhood",
}

// InspectMedia checks attached media URLs against the risky-extension
// deny-list. It returns nil when there are no assets at all, so callers can
// tell "nothing to check" from "checked and clean".
func InspectMedia(urls []string) *models.MediaAnalysisResult {
	if len(urls) == 0 {
		return nil
	}
	var flagged []string
	for _, u := range urls {
		ext := strings.ToLower(path.Ext(strings.TrimSpace(u)))
		if riskyExtensions[ext] {
			flagged = append(flagged, u)
		}
	}
	return &models.MediaAnalysisResult{
		FlaggedAssets: flagged,
		TotalAssets:   len(urls),
	}
}

// MatchWatchlist checks campaign text fields and the creator email against
// the sanctioned-term list. Returns nil when nothing matched.
func MatchWatchlist(fields ...string) *models.WatchlistResult {
	haystack := strings.ToLower(strings.Join(fields, " "))
	var matches []string
	for _, term := range WatchlistTerms {
		if strings.Contains(haystack, term) {
			matches = append(matches, term)
		}
	}
	if len(matches) == 0 {
		return nil
	}
	return &models.WatchlistResult{Matches: matches}
}

// FraudInput carries the account and campaign attributes the fraud scorer
// weighs.
type FraudInput struct {
	SyncRiskScore  float64
	GoalAmount     int64
	AccountAge     time.Duration
	MissingContext bool
	DurationDays   int
}

// ScoreFraud combines weighted fraud signals into a probability in [0,1].
// Deterministic: identical input always yields the identical score and
// reasons.
func ScoreFraud(cfg config.ScreeningConfig, in FraudInput) models.FraudScoreResult {
	var (
		score   float64
		reasons []string
	)

	if in.SyncRiskScore > 0 {
		score += cfg.FraudSyncWeight * in.SyncRiskScore
		reasons = append(reasons, fmt.Sprintf("sync risk %.2f contributes %.2f", in.SyncRiskScore, cfg.FraudSyncWeight*in.SyncRiskScore))
	}
	if in.GoalAmount > cfg.LargeGoalAmount {
		score += cfg.FraudLargeGoalWeight
		reasons = append(reasons, "goal amount exceeds large-goal threshold")
	}
	if in.AccountAge < cfg.YoungAccountAge {
		score += cfg.FraudYoungAccountWeight
		reasons = append(reasons, "creator account younger than 14 days")
	}
	if in.MissingContext {
		score += cfg.FraudMissingContextWeight
		reasons = append(reasons, "campaign context is incomplete")
	}
	if in.DurationDays > cfg.LongWindowDays {
		score += cfg.FraudLongWindowWeight
		reasons = append(reasons, fmt.Sprintf("fundraising window exceeds %d days", cfg.LongWindowDays))
	}

	return models.FraudScoreResult{
		Score:   Round2(clamp01(score)),
		Reasons: reasons,
	}
}
