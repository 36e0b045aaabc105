package models

// ProfileRef is the abbreviated profile embedded in the authenticated user record.
type ProfileRef struct {
	ID    int    `json:"id"`
	Image string `json:"image,omitempty"`
}

// User represents the authenticated account returned by /auth/user/.
type User struct {
	ID       int        `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email,omitempty"`
	Profile  ProfileRef `json:"profile"`
}

// HasProfile reports whether the record carries a usable profile reference.
// A user record without one is treated as malformed by session hydration.
func (u User) HasProfile() bool {
	return u.Profile.ID > 0
}
