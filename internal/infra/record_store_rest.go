package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/go-resty/resty/v2"
)

// RestRecordStore talks to the hosted database through its PostgREST endpoint.
type RestRecordStore struct {
	client *resty.Client
}

func NewRestRecordStore(client *resty.Client) ports.RecordStore {
	return &RestRecordStore{client: client}
}

func (s *RestRecordStore) SelectWhereNotNull(ctx context.Context, collection, field string) ([]models.ImageRecord, error) {
	var rows []map[string]json.RawMessage

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select": "id," + field,
			field:    "not.is.null",
			"order":  "id.asc",
		}).
		SetResult(&rows).
		SetError(&SupabaseError{}).
		Get("/rest/v1/" + url.PathEscape(collection))
	if err != nil {
		return nil, fmt.Errorf("select %s.%s: %w", collection, field, err)
	}
	if err := handleSupabaseResponse(resp); err != nil {
		return nil, fmt.Errorf("select %s.%s: %w", collection, field, err)
	}

	records := make([]models.ImageRecord, 0, len(rows))
	for _, row := range rows {
		id, err := rawID(row["id"])
		if err != nil {
			return nil, fmt.Errorf("select %s.%s: %w", collection, field, err)
		}

		rec := models.ImageRecord{ID: id}
		if raw, ok := row[field]; ok && string(raw) != "null" {
			var p string
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("record %s: %s is not text: %w", id, field, err)
			}
			rec.Path = &p
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RestRecordStore) UpdateByID(ctx context.Context, collection, id, field, value string) error {
	var rows []map[string]json.RawMessage

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetBody(map[string]string{field: value}).
		SetResult(&rows).
		SetError(&SupabaseError{}).
		Patch("/rest/v1/" + url.PathEscape(collection))
	if err != nil {
		return fmt.Errorf("update %s %s: %w", collection, id, err)
	}
	if err := handleSupabaseResponse(resp); err != nil {
		return fmt.Errorf("update %s %s: %w", collection, id, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("update %s %s: %w", collection, id, ports.ErrRecordNotFound)
	}
	return nil
}

// rawID renders a JSON id (number or string) as text.
func rawID(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", fmt.Errorf("row without id")
	}
	if strings.HasPrefix(s, `"`) {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return id, nil
	}
	return s, nil
}
