package models

// Profile is the expanded profile record served by /profiles/{id}/.
type Profile struct {
	ID             int    `json:"id"`
	Owner          string `json:"owner"` // username of the owning account
	Name           string `json:"name,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Image          string `json:"image,omitempty"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	WorkoutsCount  int    `json:"workouts_count"`
	// FollowingID is the viewer's follower-relation ID when the signed-in
	// user follows this profile, nil otherwise.
	FollowingID *int   `json:"following_id"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}
