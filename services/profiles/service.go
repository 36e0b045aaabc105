// Package profiles is the client for the /profiles/ endpoints.
package profiles

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"fittrack/api"
	"fittrack/models"
)

// UpdateFields are the editable profile fields. Nil pointers are omitted so
// a partial update only touches what the form changed.
type UpdateFields struct {
	Name *string `json:"name,omitempty"`
	Bio  *string `json:"bio,omitempty"`
}

type profileList struct {
	Results []models.Profile `json:"results"`
}

// Service issues profile calls on the request client of the pair.
type Service struct {
	client *api.Client
}

// NewService creates the profiles client.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Get fetches the expanded profile record.
func (s *Service) Get(ctx context.Context, id int) (models.Profile, error) {
	var profile models.Profile
	if err := s.client.Get(ctx, fmt.Sprintf("/profiles/%d/", id), &profile); err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// Update applies the given fields to the profile.
func (s *Service) Update(ctx context.Context, id int, fields UpdateFields) (models.Profile, error) {
	var profile models.Profile
	if err := s.client.Patch(ctx, fmt.Sprintf("/profiles/%d/", id), fields, &profile); err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// Popular lists the most-followed profiles.
func (s *Service) Popular(ctx context.Context, limit int) ([]models.Profile, error) {
	query := url.Values{"ordering": {"-followers_count"}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var list profileList
	if err := s.client.Get(ctx, "/profiles/?"+query.Encode(), &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// UploadImage replaces the profile avatar. The part's content type is
// sniffed from the bytes rather than trusted from the filename.
func (s *Service) UploadImage(ctx context.Context, id int, filename string, data []byte) (models.Profile, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", mimetype.Detect(data).String())

	part, err := writer.CreatePart(header)
	if err != nil {
		return models.Profile{}, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return models.Profile{}, fmt.Errorf("write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return models.Profile{}, fmt.Errorf("finish multipart body: %w", err)
	}

	var profile models.Profile
	path := fmt.Sprintf("/profiles/%d/image/", id)
	if err := s.client.Upload(ctx, http.MethodPut, path, writer.FormDataContentType(), buf.Bytes(), &profile); err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}
