package models

// Post is a shared workout entry on the social feed.
type Post struct {
	ID            int    `json:"id"`
	Owner         string `json:"owner"`
	ProfileID     int    `json:"profile_id"`
	ProfileImage  string `json:"profile_image,omitempty"`
	WorkoutID     int    `json:"workout_id,omitempty"`
	Content       string `json:"content,omitempty"`
	Image         string `json:"image,omitempty"`
	LikesCount    int    `json:"likes_count"`
	CommentsCount int    `json:"comments_count"`
	// LikeID is the viewer's like-relation ID when the signed-in user has
	// liked this post, nil otherwise.
	LikeID    *int   `json:"like_id"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Comment is a comment left on a feed post.
type Comment struct {
	ID           int    `json:"id"`
	Owner        string `json:"owner"`
	ProfileID    int    `json:"profile_id"`
	ProfileImage string `json:"profile_image,omitempty"`
	PostID       int    `json:"post"`
	Content      string `json:"content"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Like is a like-relation between the signed-in user and a post.
type Like struct {
	ID        int    `json:"id"`
	Owner     string `json:"owner"`
	PostID    int    `json:"post"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Follower is a follow-relation between the signed-in user and a profile.
type Follower struct {
	ID         int    `json:"id"`
	Owner      string `json:"owner"`
	FollowedID int    `json:"followed"`
	CreatedAt  string `json:"created_at,omitempty"`
}
