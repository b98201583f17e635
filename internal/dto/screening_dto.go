package dto

type RunScreeningRequest struct {
	Limit int `json:"limit"`
}
