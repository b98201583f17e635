package screening

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/models"
	"github.com/google/uuid"
)

// maxBatchSize caps how many jobs one batch invocation may claim, keeping
// worst-case latency predictable and bounding concurrent moderation calls.
const maxBatchSize = 5

// JobResult reports the fate of one job in a batch.
type JobResult struct {
	JobID      uuid.UUID `json:"job_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Status     string    `json:"status"`
	Decision   string    `json:"decision,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// BatchResult summarizes one batch invocation. Invoking the batch runner
// with nothing pending is a no-op: all counts zero.
type BatchResult struct {
	Claimed   int         `json:"claimed"`
	Completed int         `json:"completed"`
	Failed    int         `json:"failed"`
	Jobs      []JobResult `json:"jobs,omitempty"`
}

// Orchestrator coordinates the async screening phase: it enqueues jobs at
// submission time and processes claimed jobs in batches. Any number of
// orchestrators on any host may share the same stores; the store's
// conditional claim is the only coordination between them.
type Orchestrator struct {
	jobs      JobStore
	campaigns CampaignStore
	moderator TextModerator
	cfg       config.ScreeningConfig
	workerID  string
}

func NewOrchestrator(jobs JobStore, campaigns CampaignStore, moderator TextModerator, cfg config.ScreeningConfig) *Orchestrator {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &Orchestrator{
		jobs:      jobs,
		campaigns: campaigns,
		moderator: moderator,
		cfg:       cfg,
		workerID:  fmt.Sprintf("%s:%d", host, os.Getpid()),
	}
}

// Enqueue records a pending screening job carrying an immutable snapshot of
// the sync result. The job's initial risk score is the sync score.
func (o *Orchestrator) Enqueue(campaignID uuid.UUID, syncResult models.SyncCheckResult) (*models.ScreeningJob, error) {
	job := &models.ScreeningJob{
		ID:         uuid.New(),
		CampaignID: campaignID,
		JobType:    models.JobTypeInitial,
		Status:     models.JobStatusPending,
		SyncResult: syncResult,
		RiskScore:  syncResult.RiskScore,
	}
	if err := o.jobs.Insert(job); err != nil {
		return nil, fmt.Errorf("failed to enqueue screening job: %w", err)
	}
	slog.Info("screening job enqueued",
		"job_id", job.ID.String(),
		"campaign_id", campaignID.String(),
		"sync_decision", syncResult.Decision)
	return job, nil
}

// ProcessPending claims up to limit pending jobs (capped at 5), oldest
// first, and processes each claimed job in turn. Jobs lost to a concurrent
// claimer are skipped silently. A failure in one job never aborts the rest
// of the batch, and never propagates to the caller.
func (o *Orchestrator) ProcessPending(ctx context.Context, limit int) (BatchResult, error) {
	if limit <= 0 || limit > maxBatchSize {
		limit = maxBatchSize
	}

	var result BatchResult

	pending, err := o.jobs.ListPending(limit)
	if err != nil {
		return result, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	for _, job := range pending {
		won, err := o.jobs.Claim(job.ID, o.workerID)
		if err != nil {
			slog.Error("screening claim failed", "job_id", job.ID.String(), "error", err.Error())
			continue
		}
		if !won {
			// Another worker claimed it first. Not an error.
			continue
		}
		result.Claimed++

		jr := JobResult{JobID: job.ID, CampaignID: job.CampaignID}
		if outcome, err := o.runJob(ctx, job.ID); err != nil {
			if failErr := o.jobs.Fail(job.ID, err.Error()); failErr != nil {
				slog.Error("failed to mark screening job failed",
					"job_id", job.ID.String(), "error", failErr.Error())
			}
			result.Failed++
			jr.Status = models.JobStatusFailed
			jr.Error = err.Error()
			slog.Error("screening job failed",
				"job_id", job.ID.String(),
				"campaign_id", job.CampaignID.String(),
				"error", err.Error())
		} else {
			result.Completed++
			jr.Status = models.JobStatusCompleted
			jr.Decision = outcome.Decision
			slog.Info("screening job completed",
				"job_id", job.ID.String(),
				"campaign_id", job.CampaignID.String(),
				"decision", outcome.Decision,
				"risk_score", outcome.RiskScore)
		}
		result.Jobs = append(result.Jobs, jr)
	}

	return result, nil
}

// runJob executes one claimed job end to end. Panics from analyzer code are
// converted to errors so they stay inside the per-job boundary.
func (o *Orchestrator) runJob(ctx context.Context, jobID uuid.UUID) (outcome models.ScreeningOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("screening panicked: %v", r)
		}
	}()

	job, err := o.jobs.Get(jobID)
	if err != nil {
		return outcome, fmt.Errorf("job vanished before processing: %w", err)
	}

	campaign, err := o.campaigns.GetWithCreator(job.CampaignID)
	if err != nil {
		return outcome, fmt.Errorf("campaign %s unavailable: %w", job.CampaignID, err)
	}

	async := o.runAnalyzers(ctx, campaign, job.SyncResult)
	outcome = Evaluate(o.cfg, job.SyncResult, async)

	if err := o.campaigns.ApplyOutcome(campaign.ID, outcome); err != nil {
		return outcome, fmt.Errorf("failed to update campaign compliance: %w", err)
	}
	if err := o.jobs.Complete(job.ID, &async, outcome); err != nil {
		return outcome, fmt.Errorf("failed to complete job: %w", err)
	}
	return outcome, nil
}

// runAnalyzers executes the four analyzers concurrently and waits for all of
// them. Each degrades to its neutral default on failure; none can abort the
// batch or the other analyzers.
func (o *Orchestrator) runAnalyzers(ctx context.Context, campaign *models.Campaign, syncResult models.SyncCheckResult) models.AsyncCheckResult {
	var (
		wg    sync.WaitGroup
		text  *models.TextModerationResult
		media *models.MediaAnalysisResult
		watch *models.WatchlistResult
		fraud models.FraudScoreResult
	)

	wg.Add(4)

	go func() {
		defer wg.Done()
		res, err := o.moderator.Moderate(ctx, campaign.Description)
		if err != nil {
			slog.Warn("text moderation unavailable, using neutral default",
				"campaign_id", campaign.ID.String(), "error", err.Error())
			return
		}
		text = res
	}()

	go func() {
		defer wg.Done()
		media = InspectMedia(campaign.MediaURLs)
	}()

	go func() {
		defer wg.Done()
		watch = MatchWatchlist(
			campaign.Title,
			campaign.Description,
			campaign.Beneficiary,
			campaign.Creator.Email,
		)
	}()

	go func() {
		defer wg.Done()
		fraud = ScoreFraud(o.cfg, FraudInput{
			SyncRiskScore:  syncResult.RiskScore,
			GoalAmount:     campaign.GoalAmount,
			AccountAge:     time.Since(campaign.Creator.CreatedAt),
			MissingContext: campaign.Category == "" || campaign.Beneficiary == "",
			DurationDays:   campaign.DurationDays,
		})
	}()

	wg.Wait()

	return models.AsyncCheckResult{
		TextModeration: text,
		MediaAnalysis:  media,
		Watchlist:      watch,
		FraudScore:     fraud,
	}
}
