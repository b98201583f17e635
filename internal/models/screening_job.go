package models

import (
	"time"

	"github.com/google/uuid"
)

// Screening job lifecycle. Transitions only move forward:
// pending -> processing -> completed | failed.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const JobTypeInitial = "initial"

// ScreeningJob is one durable unit of async screening work. SyncResult is an
// immutable snapshot taken at enqueue time; AsyncResult, Decision, RiskScore
// and the status/timestamps are the only fields written after creation.
//
// LockedAt/LockedBy record which worker claimed the job. There is no
// lock-expiry sweep yet: a worker crash leaves the row in "processing" until
// operators requeue it. The lock fields are persisted so a sweep can be
// added without a schema change.
type ScreeningJob struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index" json:"campaign_id"`
	JobType    string    `gorm:"size:30;not null;default:'initial'" json:"job_type"`
	Status     string    `gorm:"size:20;not null;default:'pending';index" json:"status"`

	SyncResult  SyncCheckResult   `gorm:"type:jsonb;serializer:json" json:"sync_result"`
	AsyncResult *AsyncCheckResult `gorm:"type:jsonb;serializer:json" json:"async_result,omitempty"`

	Decision      string  `gorm:"size:20" json:"decision"`
	RiskScore     float64 `gorm:"type:numeric(4,2);default:0" json:"risk_score"`
	FailureReason string  `gorm:"size:1000" json:"failure_reason,omitempty"`

	LockedAt *time.Time `json:"locked_at,omitempty"`
	LockedBy string     `gorm:"size:100" json:"locked_by,omitempty"`

	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (ScreeningJob) TableName() string {
	return "screening_jobs"
}
