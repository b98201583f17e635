package screening

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/fundhaven/screening-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrJobNotFound      = errors.New("screening job not found")
	ErrCampaignNotFound = errors.New("campaign not found")
)

// JobStore is the durable screening-job queue. The store is the single
// source of truth for job state; Claim is the only mechanism preventing two
// workers from processing the same job.
type JobStore interface {
	Insert(job *models.ScreeningJob) error
	Get(id uuid.UUID) (*models.ScreeningJob, error)
	// ListPending returns up to limit pending jobs, oldest first.
	ListPending(limit int) ([]models.ScreeningJob, error)
	// List returns jobs filtered by status (all when empty), newest first.
	List(status string, limit, offset int) ([]models.ScreeningJob, int64, error)
	// Claim transitions a job from pending to processing iff it is still
	// pending. Returns false when another worker won the race.
	Claim(id uuid.UUID, workerID string) (bool, error)
	Complete(id uuid.UUID, async *models.AsyncCheckResult, outcome models.ScreeningOutcome) error
	Fail(id uuid.UUID, reason string) error
}

// CampaignStore is the read/write boundary to the campaign record.
type CampaignStore interface {
	// GetWithCreator loads a campaign together with its creator account.
	GetWithCreator(id uuid.UUID) (*models.Campaign, error)
	// ApplyOutcome writes the compliance fields of a completed screening
	// pass. BlockedAt is set only for blocked outcomes and cleared otherwise.
	ApplyOutcome(id uuid.UUID, outcome models.ScreeningOutcome) error
}

type gormJobStore struct {
	db *gorm.DB
}

func NewJobStore(db *gorm.DB) JobStore {
	return &gormJobStore{db: db}
}

func (s *gormJobStore) Insert(job *models.ScreeningJob) error {
	return s.db.Create(job).Error
}

func (s *gormJobStore) Get(id uuid.UUID) (*models.ScreeningJob, error) {
	var job models.ScreeningJob
	if err := s.db.First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (s *gormJobStore) ListPending(limit int) ([]models.ScreeningJob, error) {
	var jobs []models.ScreeningJob
	err := s.db.
		Where("status = ?", models.JobStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

func (s *gormJobStore) List(status string, limit, offset int) ([]models.ScreeningJob, int64, error) {
	var jobs []models.ScreeningJob
	var total int64

	query := s.db.Model(&models.ScreeningJob{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// Claim is a conditional update keyed on the previously-read status. The
// affected-row count decides win or loss; a read-then-write here would
// reintroduce the double-processing race.
func (s *gormJobStore) Claim(id uuid.UUID, workerID string) (bool, error) {
	now := time.Now().UTC()
	result := s.db.Model(&models.ScreeningJob{}).
		Where("id = ? AND status = ?", id, models.JobStatusPending).
		Updates(map[string]interface{}{
			"status":     models.JobStatusProcessing,
			"locked_at":  now,
			"locked_by":  workerID,
			"started_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *gormJobStore) Complete(id uuid.UUID, async *models.AsyncCheckResult, outcome models.ScreeningOutcome) error {
	now := time.Now().UTC()
	result := s.db.Model(&models.ScreeningJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         models.JobStatusCompleted,
			"async_result":   jsonColumn(async),
			"decision":       outcome.Decision,
			"risk_score":     outcome.RiskScore,
			"failure_reason": "",
			"completed_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *gormJobStore) Fail(id uuid.UUID, reason string) error {
	now := time.Now().UTC()
	if len(reason) > 1000 {
		reason = reason[:1000]
	}
	result := s.db.Model(&models.ScreeningJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         models.JobStatusFailed,
			"failure_reason": reason,
			"completed_at":   now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// jsonColumn serializes a value for a jsonb column inside a map-based
// Updates call, where GORM's field serializer does not apply.
func jsonColumn(v interface{}) interface{} {
	return gorm.Expr("?::jsonb", toJSON(v))
}

func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

type gormCampaignStore struct {
	db *gorm.DB
}

func NewCampaignStore(db *gorm.DB) CampaignStore {
	return &gormCampaignStore{db: db}
}

func (s *gormCampaignStore) GetWithCreator(id uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.Preload("Creator").First(&campaign, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &campaign, nil
}

func (s *gormCampaignStore) ApplyOutcome(id uuid.UUID, outcome models.ScreeningOutcome) error {
	now := time.Now().UTC()

	updates := map[string]interface{}{
		"compliance_status":  outcome.ComplianceStatus,
		"compliance_summary": outcome.Summary,
		"compliance_flags":   jsonColumn(outcome.Flags),
		"risk_score":         outcome.RiskScore,
		"review_required":    outcome.Decision == models.DecisionReview,
		"last_screened_at":   now,
	}
	if outcome.Decision == models.DecisionBlocked {
		updates["blocked_at"] = now
	} else {
		updates["blocked_at"] = nil
	}

	result := s.db.Model(&models.Campaign{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}
