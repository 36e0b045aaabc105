// Package feed is the client for the social endpoints: posts, likes,
// comments, and follows.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sourcegraph/conc"

	"fittrack/api"
	"fittrack/models"
	"fittrack/services/profiles"
)

type postList struct {
	Results []models.Post `json:"results"`
}

type commentList struct {
	Results []models.Comment `json:"results"`
}

type followerList struct {
	Results []models.Follower `json:"results"`
}

// Overview is everything the feed page shows at once.
type Overview struct {
	Posts     []models.Post
	Popular   []models.Profile
	Following []models.Follower
}

// Service issues feed calls on the request client of the pair.
type Service struct {
	client   *api.Client
	profiles *profiles.Service
}

// NewService creates the feed client.
func NewService(client *api.Client, profilesSvc *profiles.Service) *Service {
	return &Service{client: client, profiles: profilesSvc}
}

// Posts fetches one page of the feed.
func (s *Service) Posts(ctx context.Context, page int) ([]models.Post, error) {
	path := "/posts/"
	if page > 1 {
		path += "?" + url.Values{"page": {strconv.Itoa(page)}}.Encode()
	}

	var list postList
	if err := s.client.Get(ctx, path, &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// Like records a like on the post and returns the created relation.
func (s *Service) Like(ctx context.Context, postID int) (models.Like, error) {
	payload := map[string]int{"post": postID}

	var like models.Like
	if err := s.client.Post(ctx, "/likes/", payload, &like); err != nil {
		return models.Like{}, err
	}
	return like, nil
}

// Unlike removes a like relation.
func (s *Service) Unlike(ctx context.Context, likeID int) error {
	return s.client.Delete(ctx, fmt.Sprintf("/likes/%d/", likeID))
}

// Comments fetches the comments on a post.
func (s *Service) Comments(ctx context.Context, postID int) ([]models.Comment, error) {
	query := url.Values{"post": {strconv.Itoa(postID)}}

	var list commentList
	if err := s.client.Get(ctx, "/comments/?"+query.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// AddComment leaves a comment on a post.
func (s *Service) AddComment(ctx context.Context, postID int, content string) (models.Comment, error) {
	payload := map[string]interface{}{"post": postID, "content": content}

	var comment models.Comment
	if err := s.client.Post(ctx, "/comments/", payload, &comment); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes one of the signed-in user's comments.
func (s *Service) DeleteComment(ctx context.Context, id int) error {
	return s.client.Delete(ctx, fmt.Sprintf("/comments/%d/", id))
}

// Follow starts following a profile and returns the created relation.
func (s *Service) Follow(ctx context.Context, profileID int) (models.Follower, error) {
	payload := map[string]int{"followed": profileID}

	var follower models.Follower
	if err := s.client.Post(ctx, "/followers/", payload, &follower); err != nil {
		return models.Follower{}, err
	}
	return follower, nil
}

// Unfollow removes a follow relation.
func (s *Service) Unfollow(ctx context.Context, followerID int) error {
	return s.client.Delete(ctx, fmt.Sprintf("/followers/%d/", followerID))
}

// Following lists the signed-in user's follow relations.
func (s *Service) Following(ctx context.Context) ([]models.Follower, error) {
	var list followerList
	if err := s.client.Get(ctx, "/followers/", &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// Overview fetches the feed page's three independent lists concurrently.
// The first error wins; partial results are not returned.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	var (
		overview                        Overview
		postsErr, popularErr, followErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		overview.Posts, postsErr = s.Posts(ctx, 1)
	})
	wg.Go(func() {
		overview.Popular, popularErr = s.profiles.Popular(ctx, 10)
	})
	wg.Go(func() {
		overview.Following, followErr = s.Following(ctx)
	})
	wg.Wait()

	for _, err := range []error{postsErr, popularErr, followErr} {
		if err != nil {
			return Overview{}, err
		}
	}
	return overview, nil
}
