package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Compliance states a campaign moves through. The status always reflects the
// most recently completed screening outcome; a failed screening job leaves it
// untouched.
const (
	CompliancePending  = "pending_screening"
	ComplianceInReview = "in_review"
	ComplianceApproved = "approved"
	ComplianceBlocked  = "blocked"
)

// Campaign is a user-submitted fundraising campaign. Goal amounts are stored
// in minor currency units.
type Campaign struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CreatorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"creator_id"`
	Title        string    `gorm:"not null;size:200" json:"title"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Category     string    `gorm:"size:100" json:"category"`
	Beneficiary  string    `gorm:"type:text" json:"beneficiary"`
	GoalAmount   int64     `gorm:"not null" json:"goal_amount"`
	Currency     string    `gorm:"size:3;not null;default:'USD'" json:"currency"`
	DurationDays int       `gorm:"default:30" json:"duration_days"`
	MediaURLs    []string  `gorm:"type:jsonb;serializer:json;default:'[]'" json:"media_urls"`

	ComplianceStatus  string     `gorm:"size:30;not null;default:'pending_screening';index" json:"compliance_status"`
	ComplianceSummary string     `gorm:"size:500" json:"compliance_summary"`
	ComplianceFlags   []string   `gorm:"type:jsonb;serializer:json;default:'[]'" json:"compliance_flags"`
	RiskScore         float64    `gorm:"type:numeric(4,2);default:0" json:"risk_score"`
	ReviewRequired    bool       `gorm:"not null;default:false" json:"review_required"`
	LastScreenedAt    *time.Time `json:"last_screened_at,omitempty"`
	BlockedAt         *time.Time `json:"blocked_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Creator User `gorm:"foreignKey:CreatorID" json:"-"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
