package infra

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/go-resty/resty/v2"
)

type SupabaseStorage struct {
	client  *resty.Client
	baseURL string
	bucket  string
}

func NewSupabaseStorage(client *resty.Client, baseURL, bucket string) ports.ImageStorage {
	return &SupabaseStorage{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
	}
}

func (s *SupabaseStorage) Upload(ctx context.Context, objectName, contentType string, body []byte) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "false").
		SetBody(body).
		SetError(&SupabaseError{}).
		Post(s.objectPath("/storage/v1/object/", objectName))
	if err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	if err := handleSupabaseResponse(resp); err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	return nil
}

func (s *SupabaseStorage) Remove(ctx context.Context, objectName string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetError(&SupabaseError{}).
		Delete(s.objectPath("/storage/v1/object/", objectName))
	if err != nil {
		return fmt.Errorf("storage remove: %w", err)
	}
	if err := handleSupabaseResponse(resp); err != nil {
		return fmt.Errorf("storage remove: %w", err)
	}
	return nil
}

func (s *SupabaseStorage) PublicURL(objectName string) string {
	return s.baseURL + s.objectPath("/storage/v1/object/public/", objectName)
}

func (s *SupabaseStorage) objectPath(prefix, objectName string) string {
	return prefix + url.PathEscape(s.bucket) + "/" + url.PathEscape(objectName)
}
