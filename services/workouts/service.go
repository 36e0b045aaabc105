// Package workouts is the client for the /workouts/ endpoints.
package workouts

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	retry "github.com/avast/retry-go/v4"

	"fittrack/api"
	"fittrack/models"
)

const (
	// listAttempts bounds retries on idempotent reads. Writes are never
	// retried automatically.
	listAttempts = 3
	retryDelay   = 250 * time.Millisecond
)

// Filter narrows a workout listing.
type Filter struct {
	ProfileID   int
	WorkoutType string
	Search      string
	Page        int
}

func (f Filter) query() string {
	values := url.Values{}
	if f.ProfileID > 0 {
		values.Set("profile_id", strconv.Itoa(f.ProfileID))
	}
	if f.WorkoutType != "" {
		values.Set("workout_type", f.WorkoutType)
	}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.Page > 1 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

type workoutList struct {
	Results []models.Workout `json:"results"`
}

// Fields is the writable part of a workout record.
type Fields struct {
	Title           string `json:"title"`
	WorkoutType     string `json:"workout_type"`
	DurationMinutes int    `json:"duration"`
	Calories        int    `json:"calories,omitempty"`
	Intensity       string `json:"intensity,omitempty"`
	Notes           string `json:"notes,omitempty"`
	DateLogged      string `json:"date_logged,omitempty"`
}

// Service issues workout calls on the request client of the pair.
type Service struct {
	client *api.Client
}

// NewService creates the workouts client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// List fetches workouts matching the filter. Connectivity and 5xx failures
// on this read are retried a few times before surfacing.
func (s *Service) List(ctx context.Context, filter Filter) ([]models.Workout, error) {
	var list workoutList
	err := retry.Do(
		func() error {
			return s.client.Get(ctx, "/workouts/"+filter.query(), &list)
		},
		retry.Attempts(listAttempts),
		retry.Delay(retryDelay),
		retry.RetryIf(isRetryable),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return list.Results, nil
}

// Get fetches a single workout.
func (s *Service) Get(ctx context.Context, id int) (models.Workout, error) {
	var workout models.Workout
	err := retry.Do(
		func() error {
			return s.client.Get(ctx, fmt.Sprintf("/workouts/%d/", id), &workout)
		},
		retry.Attempts(listAttempts),
		retry.Delay(retryDelay),
		retry.RetryIf(isRetryable),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return models.Workout{}, err
	}
	return workout, nil
}

// Create logs a new workout.
func (s *Service) Create(ctx context.Context, fields Fields) (models.Workout, error) {
	var workout models.Workout
	if err := s.client.Post(ctx, "/workouts/", fields, &workout); err != nil {
		return models.Workout{}, err
	}
	return workout, nil
}

// Update rewrites an existing workout.
func (s *Service) Update(ctx context.Context, id int, fields Fields) (models.Workout, error) {
	var workout models.Workout
	if err := s.client.Put(ctx, fmt.Sprintf("/workouts/%d/", id), fields, &workout); err != nil {
		return models.Workout{}, err
	}
	return workout, nil
}

// Delete removes a workout.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.client.Delete(ctx, fmt.Sprintf("/workouts/%d/", id))
}

// isRetryable allows retries only for failures where the request may never
// have been seen, or the server asked us to come back later.
func isRetryable(err error) bool {
	return api.IsNetwork(err) || api.IsServer(err)
}
