package models

// Workout types accepted by the API.
const (
	WorkoutCardio      = "cardio"
	WorkoutStrength    = "strength"
	WorkoutFlexibility = "flexibility"
	WorkoutSports      = "sports"
)

// Workout represents a single logged workout session.
type Workout struct {
	ID              int    `json:"id"`
	Owner           string `json:"owner"`
	ProfileID       int    `json:"profile_id,omitempty"`
	Title           string `json:"title"`
	WorkoutType     string `json:"workout_type"`
	DurationMinutes int    `json:"duration"`
	Calories        int    `json:"calories,omitempty"`
	Intensity       string `json:"intensity,omitempty"` // "low" | "moderate" | "high"
	Notes           string `json:"notes,omitempty"`
	DateLogged      string `json:"date_logged,omitempty"` // YYYY-MM-DD
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}
