package models

// Goal represents a fitness goal the user tracks progress against.
type Goal struct {
	ID           int     `json:"id"`
	Owner        string  `json:"owner"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	TargetValue  float64 `json:"target_value"`
	CurrentValue float64 `json:"current_value"`
	Unit         string  `json:"unit,omitempty"`     // e.g. "km", "kg", "sessions"
	Deadline     string  `json:"deadline,omitempty"` // YYYY-MM-DD
	Achieved     bool    `json:"achieved"`
	CreatedAt    string  `json:"created_at,omitempty"`
}
