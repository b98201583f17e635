package screening

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memJobStore implements JobStore in memory with the same claim contract as
// the Postgres store: the status transition succeeds only if the job is
// still pending at the moment of update.
type memJobStore struct {
	mu          sync.Mutex
	jobs        map[uuid.UUID]*models.ScreeningJob
	completions map[uuid.UUID]int
}

func newMemJobStore() *memJobStore {
	return &memJobStore{
		jobs:        make(map[uuid.UUID]*models.ScreeningJob),
		completions: make(map[uuid.UUID]int),
	}
}

func (s *memJobStore) Insert(job *models.ScreeningJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memJobStore) Get(id uuid.UUID) (*models.ScreeningJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *memJobStore) ListPending(limit int) ([]models.ScreeningJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []models.ScreeningJob
	for _, job := range s.jobs {
		if job.Status == models.JobStatusPending {
			pending = append(pending, *job)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *memJobStore) List(status string, limit, offset int) ([]models.ScreeningJob, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScreeningJob
	for _, job := range s.jobs {
		if status == "" || job.Status == status {
			out = append(out, *job)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memJobStore) Claim(id uuid.UUID, workerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != models.JobStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	job.Status = models.JobStatusProcessing
	job.LockedAt = &now
	job.LockedBy = workerID
	job.StartedAt = &now
	return true, nil
}

func (s *memJobStore) Complete(id uuid.UUID, async *models.AsyncCheckResult, outcome models.ScreeningOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	now := time.Now().UTC()
	job.Status = models.JobStatusCompleted
	job.AsyncResult = async
	job.Decision = outcome.Decision
	job.RiskScore = outcome.RiskScore
	job.FailureReason = ""
	job.CompletedAt = &now
	s.completions[id]++
	return nil
}

func (s *memJobStore) Fail(id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	now := time.Now().UTC()
	job.Status = models.JobStatusFailed
	job.FailureReason = reason
	job.CompletedAt = &now
	return nil
}

type memCampaignStore struct {
	mu        sync.Mutex
	campaigns map[uuid.UUID]*models.Campaign
	outcomes  map[uuid.UUID]models.ScreeningOutcome
}

func newMemCampaignStore() *memCampaignStore {
	return &memCampaignStore{
		campaigns: make(map[uuid.UUID]*models.Campaign),
		outcomes:  make(map[uuid.UUID]models.ScreeningOutcome),
	}
}

func (s *memCampaignStore) add(c *models.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = c
}

func (s *memCampaignStore) GetWithCreator(id uuid.UUID) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memCampaignStore) ApplyOutcome(id uuid.UUID, outcome models.ScreeningOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return ErrCampaignNotFound
	}
	c.ComplianceStatus = outcome.ComplianceStatus
	c.ComplianceSummary = outcome.Summary
	c.ComplianceFlags = outcome.Flags
	c.RiskScore = outcome.RiskScore
	c.ReviewRequired = outcome.Decision == models.DecisionReview
	now := time.Now().UTC()
	c.LastScreenedAt = &now
	if outcome.Decision == models.DecisionBlocked {
		c.BlockedAt = &now
	} else {
		c.BlockedAt = nil
	}
	s.outcomes[id] = outcome
	return nil
}

type stubModerator struct {
	result *models.TextModerationResult
	err    error
}

func (m *stubModerator) Moderate(ctx context.Context, text string) (*models.TextModerationResult, error) {
	return m.result, m.err
}

func testCampaign(id uuid.UUID) *models.Campaign {
	return &models.Campaign{
		ID:          id,
		CreatorID:   uuid.New(),
		Title:       "Community garden rebuild",
		Description: "Rebuilding the neighborhood garden after the storm.",
		Category:    "community",
		Beneficiary: "Elm Street residents association",
		GoalAmount:  50_000,
		Currency:    "USD",
		MediaURLs:   []string{},
		Creator: models.User{
			Email:     "organizer@example.com",
			CreatedAt: time.Now().Add(-90 * 24 * time.Hour),
		},
		ComplianceStatus: models.CompliancePending,
	}
}

type testEnv struct {
	jobs      *memJobStore
	campaigns *memCampaignStore
	orch      *Orchestrator
}

func newTestEnv(moderator TextModerator) *testEnv {
	jobs := newMemJobStore()
	campaigns := newMemCampaignStore()
	if moderator == nil {
		moderator = &stubModerator{}
	}
	return &testEnv{
		jobs:      jobs,
		campaigns: campaigns,
		orch:      NewOrchestrator(jobs, campaigns, moderator, config.LoadScreeningConfig()),
	}
}

func (e *testEnv) enqueueCampaign(t *testing.T, sync models.SyncCheckResult) (*models.Campaign, *models.ScreeningJob) {
	t.Helper()
	campaign := testCampaign(uuid.New())
	e.campaigns.add(campaign)
	job, err := e.orch.Enqueue(campaign.ID, sync)
	require.NoError(t, err)
	return campaign, job
}

func TestProcessPendingEmptyQueueIsNoOp(t *testing.T) {
	env := newTestEnv(nil)

	result, err := env.orch.ProcessPending(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Claimed)
	assert.Equal(t, 0, result.Completed)
	assert.Equal(t, 0, result.Failed)
}

func TestProcessPendingCompletesBatch(t *testing.T) {
	env := newTestEnv(nil)

	for i := 0; i < 3; i++ {
		env.enqueueCampaign(t, syncAllow(0.10))
	}

	result, err := env.orch.ProcessPending(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Claimed)
	assert.Equal(t, 3, result.Completed)
	assert.Equal(t, 0, result.Failed)

	for _, c := range env.campaigns.campaigns {
		assert.Equal(t, models.ComplianceApproved, c.ComplianceStatus)
		assert.NotNil(t, c.LastScreenedAt)
	}

	// An immediate second call finds nothing pending.
	again, err := env.orch.ProcessPending(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Claimed)
	assert.Equal(t, 0, again.Completed)
	assert.Equal(t, 0, again.Failed)
}

func TestProcessPendingBatchSizeCapped(t *testing.T) {
	env := newTestEnv(nil)

	for i := 0; i < 7; i++ {
		env.enqueueCampaign(t, syncAllow(0))
	}

	result, err := env.orch.ProcessPending(context.Background(), 50)

	require.NoError(t, err)
	assert.Equal(t, 5, result.Claimed)
}

func TestProcessPendingFailureIsolation(t *testing.T) {
	env := newTestEnv(nil)

	env.enqueueCampaign(t, syncAllow(0))
	_, orphan := env.enqueueCampaign(t, syncAllow(0))
	env.enqueueCampaign(t, syncAllow(0))

	// Delete one campaign so its job fails mid-flight.
	env.campaigns.mu.Lock()
	delete(env.campaigns.campaigns, orphan.CampaignID)
	env.campaigns.mu.Unlock()

	result, err := env.orch.ProcessPending(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Claimed)
	assert.Equal(t, 2, result.Completed)
	assert.Equal(t, 1, result.Failed)

	failed, err := env.jobs.Get(orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, failed.Status)
	assert.Contains(t, failed.FailureReason, "unavailable")
}

func TestProcessPendingClaimExclusivity(t *testing.T) {
	env := newTestEnv(nil)

	jobIDs := make([]uuid.UUID, 0, 5)
	for i := 0; i < 5; i++ {
		_, job := env.enqueueCampaign(t, syncAllow(0))
		jobIDs = append(jobIDs, job.ID)
	}

	const workers = 4
	results := make([]BatchResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.orch.ProcessPending(context.Background(), 5)
		}(i)
	}
	wg.Wait()

	totalClaimed := 0
	for i, res := range results {
		require.NoError(t, errs[i])
		totalClaimed += res.Claimed
	}
	assert.Equal(t, 5, totalClaimed)

	for _, id := range jobIDs {
		job, err := env.jobs.Get(id)
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusCompleted, job.Status)
		assert.Equal(t, 1, env.jobs.completions[id], "job completed more than once")
	}
}

func TestSyncSnapshotImmutableAcrossProcessing(t *testing.T) {
	env := newTestEnv(nil)

	sync := models.SyncCheckResult{
		Decision:  models.SyncDecisionReview,
		RiskScore: 0.45,
		Flags:     []string{FlagHighGoalAmount},
		Issues: []models.Issue{
			{Code: FlagHighGoalAmount, Detail: "goal amount exceeds threshold", Severity: models.SeverityLow},
		},
		Summary: "Sync check (review, risk 0.45): goal amount exceeds threshold",
	}
	_, job := env.enqueueCampaign(t, sync)

	before, err := env.jobs.Get(job.ID)
	require.NoError(t, err)

	_, err = env.orch.ProcessPending(context.Background(), 5)
	require.NoError(t, err)

	after, err := env.jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, before.SyncResult, after.SyncResult)
	assert.Equal(t, models.JobStatusCompleted, after.Status)
}

func TestProcessPendingModerationFlagBlocksCampaign(t *testing.T) {
	env := newTestEnv(&stubModerator{
		result: &models.TextModerationResult{
			Flagged:        true,
			CategoryScores: map[string]float64{"violence": 0.97},
		},
	})

	campaign, job := env.enqueueCampaign(t, syncAllow(0))

	result, err := env.orch.ProcessPending(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)

	stored := env.campaigns.campaigns[campaign.ID]
	assert.Equal(t, models.ComplianceBlocked, stored.ComplianceStatus)
	assert.NotNil(t, stored.BlockedAt)

	done, err := env.jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionBlocked, done.Decision)
	require.NotNil(t, done.AsyncResult)
	assert.True(t, done.AsyncResult.TextModeration.Flagged)
}

func TestProcessPendingModerationFailureDegradesToNeutral(t *testing.T) {
	env := newTestEnv(&stubModerator{err: errors.New("connection refused")})

	campaign, job := env.enqueueCampaign(t, syncAllow(0))

	result, err := env.orch.ProcessPending(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, 0, result.Failed)

	stored := env.campaigns.campaigns[campaign.ID]
	assert.Equal(t, models.ComplianceApproved, stored.ComplianceStatus)

	done, err := env.jobs.Get(job.ID)
	require.NoError(t, err)
	assert.Nil(t, done.AsyncResult.TextModeration)
}

func TestProcessPendingFraudScoreUsesSyncRisk(t *testing.T) {
	env := newTestEnv(nil)

	_, job := env.enqueueCampaign(t, syncAllow(0.50))

	_, err := env.orch.ProcessPending(context.Background(), 5)
	require.NoError(t, err)

	done, err := env.jobs.Get(job.ID)
	require.NoError(t, err)
	require.NotNil(t, done.AsyncResult)
	// 40% weight on the snapshotted sync risk score.
	assert.Equal(t, 0.20, done.AsyncResult.FraudScore.Score)
}

func TestProcessPendingRiskyMediaTriggersReview(t *testing.T) {
	env := newTestEnv(nil)

	campaign := testCampaign(uuid.New())
	campaign.MediaURLs = []string{
		"https://cdn.example.com/photo.jpg",
		"https://cdn.example.com/installer.exe",
		"https://cdn.example.com/receipt.pdf",
	}
	env.campaigns.add(campaign)
	_, err := env.orch.Enqueue(campaign.ID, syncAllow(0))
	require.NoError(t, err)

	_, err = env.orch.ProcessPending(context.Background(), 5)
	require.NoError(t, err)

	stored := env.campaigns.campaigns[campaign.ID]
	assert.Equal(t, models.ComplianceInReview, stored.ComplianceStatus)
	assert.Contains(t, stored.ComplianceFlags, FlagMediaFlagged)
	assert.True(t, stored.ReviewRequired)
}

func TestProcessPendingWatchlistEmailBlocks(t *testing.T) {
	env := newTestEnv(nil)

	campaign := testCampaign(uuid.New())
	campaign.Creator.Email = "donations@taliban-relief.org"
	env.campaigns.add(campaign)
	_, err := env.orch.Enqueue(campaign.ID, syncAllow(0))
	require.NoError(t, err)

	_, err = env.orch.ProcessPending(context.Background(), 5)
	require.NoError(t, err)

	stored := env.campaigns.campaigns[campaign.ID]
	assert.Equal(t, models.ComplianceBlocked, stored.ComplianceStatus)
	assert.Contains(t, stored.ComplianceFlags, FlagWatchlistMatch)
}
