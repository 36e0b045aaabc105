// Package goals is the client for the /goals/ endpoints.
package goals

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"

	"fittrack/api"
	"fittrack/models"
)

const (
	listAttempts = 3
	retryDelay   = 250 * time.Millisecond
)

type goalList struct {
	Results []models.Goal `json:"results"`
}

// Fields is the writable part of a goal record.
type Fields struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	TargetValue float64 `json:"target_value"`
	Unit        string  `json:"unit,omitempty"`
	Deadline    string  `json:"deadline,omitempty"`
}

// Service issues goal calls on the request client of the pair.
type Service struct {
	client *api.Client
}

// NewService creates the goals client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// List fetches the signed-in user's goals.
func (s *Service) List(ctx context.Context) ([]models.Goal, error) {
	var list goalList
	err := retry.Do(
		func() error {
			return s.client.Get(ctx, "/goals/", &list)
		},
		retry.Attempts(listAttempts),
		retry.Delay(retryDelay),
		retry.RetryIf(func(err error) bool {
			return api.IsNetwork(err) || api.IsServer(err)
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return list.Results, nil
}

// Create adds a new goal.
func (s *Service) Create(ctx context.Context, fields Fields) (models.Goal, error) {
	var goal models.Goal
	if err := s.client.Post(ctx, "/goals/", fields, &goal); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

// Update rewrites an existing goal.
func (s *Service) Update(ctx context.Context, id int, fields Fields) (models.Goal, error) {
	var goal models.Goal
	if err := s.client.Put(ctx, fmt.Sprintf("/goals/%d/", id), fields, &goal); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

// Progress records a new current value against the goal.
func (s *Service) Progress(ctx context.Context, id int, value float64) (models.Goal, error) {
	payload := map[string]float64{"current_value": value}

	var goal models.Goal
	if err := s.client.Patch(ctx, fmt.Sprintf("/goals/%d/", id), payload, &goal); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

// Delete removes a goal.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.client.Delete(ctx, fmt.Sprintf("/goals/%d/", id))
}
