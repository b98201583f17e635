package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fundhaven/screening-backend/internal/config"
	"github.com/fundhaven/screening-backend/internal/dto"
	"github.com/fundhaven/screening-backend/internal/models"
	"github.com/fundhaven/screening-backend/internal/screening"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrNotCampaignOwner = errors.New("not the campaign owner")
	ErrCampaignBlocked  = errors.New("campaign is blocked")
	ErrInvalidOverride  = errors.New("invalid override action: must be approve or block")
)

// CampaignService owns campaign CRUD and the synchronous screening phase.
// Every create and update runs the sync checker inline and enqueues an async
// screening job; the campaign stays in pending_screening until a job
// completes.
type CampaignService struct {
	db   *gorm.DB
	cfg  *config.Config
	orch *screening.Orchestrator
}

func NewCampaignService(db *gorm.DB, cfg *config.Config, orch *screening.Orchestrator) *CampaignService {
	return &CampaignService{db: db, cfg: cfg, orch: orch}
}

func (s *CampaignService) Create(creatorID uuid.UUID, req *dto.CreateCampaignRequest) (*models.Campaign, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, errors.New("title and description are required")
	}
	if req.GoalAmount <= 0 {
		return nil, errors.New("goal_amount must be positive")
	}

	var creator models.User
	if err := s.db.First(&creator, "id = ?", creatorID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	duration := req.DurationDays
	if duration <= 0 {
		duration = 30
	}
	media := req.MediaURLs
	if media == nil {
		media = []string{}
	}

	campaign := models.Campaign{
		ID:               uuid.New(),
		CreatorID:        creatorID,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Beneficiary:      req.Beneficiary,
		GoalAmount:       req.GoalAmount,
		Currency:         currency,
		DurationDays:     duration,
		MediaURLs:        media,
		ComplianceStatus: models.CompliancePending,
		ComplianceFlags:  []string{},
	}

	syncResult := s.runSyncCheck(&campaign, creator.Email)
	applySyncOptimistically(&campaign, syncResult)

	if err := s.db.Create(&campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	s.enqueueScreening(campaign.ID, syncResult)
	return &campaign, nil
}

func (s *CampaignService) Update(campaignID, requesterID uuid.UUID, req *dto.UpdateCampaignRequest) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.First(&campaign, "id = ?", campaignID).Error; err != nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.CreatorID != requesterID {
		return nil, ErrNotCampaignOwner
	}
	if campaign.ComplianceStatus == models.ComplianceBlocked {
		return nil, ErrCampaignBlocked
	}

	if req.Title != nil {
		campaign.Title = *req.Title
	}
	if req.Description != nil {
		campaign.Description = *req.Description
	}
	if req.Category != nil {
		campaign.Category = *req.Category
	}
	if req.Beneficiary != nil {
		campaign.Beneficiary = *req.Beneficiary
	}
	if req.GoalAmount != nil {
		if *req.GoalAmount <= 0 {
			return nil, errors.New("goal_amount must be positive")
		}
		campaign.GoalAmount = *req.GoalAmount
	}
	if req.DurationDays != nil {
		campaign.DurationDays = *req.DurationDays
	}
	if req.MediaURLs != nil {
		campaign.MediaURLs = *req.MediaURLs
	}

	var creator models.User
	if err := s.db.First(&creator, "id = ?", campaign.CreatorID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	// Edits always go back through screening.
	campaign.ComplianceStatus = models.CompliancePending
	syncResult := s.runSyncCheck(&campaign, creator.Email)
	applySyncOptimistically(&campaign, syncResult)

	if err := s.db.Save(&campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	s.enqueueScreening(campaign.ID, syncResult)
	return &campaign, nil
}

// Get returns a campaign. Blocked campaigns are only visible to their owner
// or an admin.
func (s *CampaignService) Get(campaignID uuid.UUID, requesterID uuid.UUID, isAdmin bool) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.First(&campaign, "id = ?", campaignID).Error; err != nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.ComplianceStatus == models.ComplianceBlocked && !isAdmin && campaign.CreatorID != requesterID {
		return nil, ErrCampaignNotFound
	}
	return &campaign, nil
}

func (s *CampaignService) ListMine(creatorID uuid.UUID, limit, offset int) ([]models.Campaign, int64, error) {
	var campaigns []models.Campaign
	var total int64

	query := s.db.Model(&models.Campaign{}).Where("creator_id = ?", creatorID)
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&campaigns).Error; err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (s *CampaignService) AdminList(status string, limit, offset int) ([]models.Campaign, int64, error) {
	var campaigns []models.Campaign
	var total int64

	query := s.db.Model(&models.Campaign{})
	if status != "" {
		query = query.Where("compliance_status = ?", status)
	}
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&campaigns).Error; err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// Override resolves a human review: an admin approves or blocks the campaign
// directly. Job history is left untouched.
func (s *CampaignService) Override(campaignID uuid.UUID, req *dto.OverrideCampaignRequest) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.First(&campaign, "id = ?", campaignID).Error; err != nil {
		return nil, ErrCampaignNotFound
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"review_required":  false,
		"last_screened_at": now,
	}
	if req.Note != "" {
		updates["compliance_summary"] = req.Note
	}

	switch req.Action {
	case "approve":
		updates["compliance_status"] = models.ComplianceApproved
		updates["blocked_at"] = nil
	case "block":
		updates["compliance_status"] = models.ComplianceBlocked
		updates["blocked_at"] = now
	default:
		return nil, ErrInvalidOverride
	}

	if err := s.db.Model(&campaign).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to apply override: %w", err)
	}
	return &campaign, nil
}

func (s *CampaignService) runSyncCheck(campaign *models.Campaign, creatorEmail string) models.SyncCheckResult {
	return screening.RunSyncCheck(s.cfg.Screening, screening.SyncInput{
		Title:        campaign.Title,
		Description:  campaign.Description,
		Category:     campaign.Category,
		Beneficiary:  campaign.Beneficiary,
		GoalAmount:   campaign.GoalAmount,
		Currency:     campaign.Currency,
		CreatorEmail: creatorEmail,
	})
}

// applySyncOptimistically seeds the campaign's compliance summary, flags and
// score from a clean sync pass. Best effort only: the async phase remains
// authoritative and the status stays pending_screening.
func applySyncOptimistically(campaign *models.Campaign, sync models.SyncCheckResult) {
	if sync.Decision != models.SyncDecisionAllow {
		return
	}
	campaign.ComplianceSummary = sync.Summary
	campaign.RiskScore = sync.RiskScore
	if sync.Flags != nil {
		campaign.ComplianceFlags = sync.Flags
	}
}

func (s *CampaignService) enqueueScreening(campaignID uuid.UUID, sync models.SyncCheckResult) {
	if _, err := s.orch.Enqueue(campaignID, sync); err != nil {
		slog.Error("failed to enqueue screening job",
			"campaign_id", campaignID.String(), "error", err.Error())
	}
}
