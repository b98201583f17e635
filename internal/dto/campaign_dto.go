package dto

type CreateCampaignRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Beneficiary  string   `json:"beneficiary"`
	GoalAmount   int64    `json:"goal_amount"`
	Currency     string   `json:"currency"`
	DurationDays int      `json:"duration_days"`
	MediaURLs    []string `json:"media_urls"`
}

type UpdateCampaignRequest struct {
	Title        *string   `json:"title,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Beneficiary  *string   `json:"beneficiary,omitempty"`
	GoalAmount   *int64    `json:"goal_amount,omitempty"`
	DurationDays *int      `json:"duration_days,omitempty"`
	MediaURLs    *[]string `json:"media_urls,omitempty"`
}

type OverrideCampaignRequest struct {
	Action string `json:"action"` // approve or block
	Note   string `json:"note"`
}
