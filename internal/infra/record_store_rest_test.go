package infra

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSupabaseURL = "https://proj.supabase.test"

func setupSupabaseMock(t *testing.T) *resty.Client {
	t.Helper()
	client := NewSupabaseClient(testSupabaseURL+"/", "anon-key", 5*time.Second)
	httpmock.ActivateNonDefault(client.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestRestRecordStore_SelectWhereNotNull(t *testing.T) {
	client := setupSupabaseMock(t)
	store := NewRestRecordStore(client)

	httpmock.RegisterResponder(http.MethodGet, testSupabaseURL+"/rest/v1/projects",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "anon-key", req.Header.Get("apikey"))
			assert.Equal(t, "Bearer anon-key", req.Header.Get("Authorization"))
			q := req.URL.Query()
			assert.Equal(t, "id,featured_image_url", q.Get("select"))
			assert.Equal(t, "not.is.null", q.Get("featured_image_url"))
			return httpmock.NewJsonResponse(http.StatusOK, []map[string]any{
				{"id": 7, "featured_image_url": "/images/[prj7]kitchen.jpg"},
				{"id": "b7e1c7de-0000-4000-8000-000000000001", "featured_image_url": "prj8-a.png"},
				{"id": 9, "featured_image_url": nil},
			})
		})

	records, err := store.SelectWhereNotNull(context.Background(), "projects", "featured_image_url")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "7", records[0].ID)
	require.NotNil(t, records[0].Path)
	assert.Equal(t, "/images/[prj7]kitchen.jpg", *records[0].Path)
	assert.Equal(t, "b7e1c7de-0000-4000-8000-000000000001", records[1].ID)
	assert.Nil(t, records[2].Path)
}

func TestRestRecordStore_SelectWhereNotNull_Error(t *testing.T) {
	client := setupSupabaseMock(t)
	store := NewRestRecordStore(client)

	httpmock.RegisterResponder(http.MethodGet, testSupabaseURL+"/rest/v1/project_images",
		httpmock.NewJsonResponderOrPanic(http.StatusUnauthorized, map[string]string{
			"code":    "PGRST301",
			"message": "JWT expired",
		}))

	_, err := store.SelectWhereNotNull(context.Background(), "project_images", "image_url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT expired")
	assert.Contains(t, err.Error(), "401")

	var apiErr *SupabaseError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "PGRST301", apiErr.Code)
}

func TestRestRecordStore_UpdateByID(t *testing.T) {
	client := setupSupabaseMock(t)
	store := NewRestRecordStore(client)

	httpmock.RegisterResponder(http.MethodPatch, testSupabaseURL+"/rest/v1/project_images",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "eq.1", req.URL.Query().Get("id"))
			assert.Equal(t, "return=representation", req.Header.Get("Prefer"))

			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			var patch map[string]string
			require.NoError(t, json.Unmarshal(body, &patch))
			assert.Equal(t, map[string]string{"image_url": "prj1-a.png"}, patch)

			return httpmock.NewJsonResponse(http.StatusOK, []map[string]any{
				{"id": 1, "image_url": "prj1-a.png"},
			})
		})

	err := store.UpdateByID(context.Background(), "project_images", "1", "image_url", "prj1-a.png")
	require.NoError(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestRestRecordStore_UpdateByID_NotFound(t *testing.T) {
	client := setupSupabaseMock(t)
	store := NewRestRecordStore(client)

	httpmock.RegisterResponder(http.MethodPatch, testSupabaseURL+"/rest/v1/project_images",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, []map[string]any{}))

	err := store.UpdateByID(context.Background(), "project_images", "404", "image_url", "prj1-a.png")
	assert.ErrorIs(t, err, ports.ErrRecordNotFound)
}

func TestRestRecordStore_UpdateByID_ServerError(t *testing.T) {
	client := setupSupabaseMock(t)
	store := NewRestRecordStore(client)

	httpmock.RegisterResponder(http.MethodPatch, testSupabaseURL+"/rest/v1/project_images",
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream unavailable"))

	err := store.UpdateByID(context.Background(), "project_images", "1", "image_url", "prj1-a.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrRecordNotFound)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSupabaseStorage(t *testing.T) {
	client := setupSupabaseMock(t)
	storage := NewSupabaseStorage(client, testSupabaseURL+"/", "project-images")

	httpmock.RegisterResponder(http.MethodPost, testSupabaseURL+"/storage/v1/object/project-images/abc.png",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "image/png", req.Header.Get("Content-Type"))
			body, _ := io.ReadAll(req.Body)
			assert.Equal(t, []byte("png-bytes"), body)
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"Key": "project-images/abc.png"})
		})

	require.NoError(t, storage.Upload(context.Background(), "abc.png", "image/png", []byte("png-bytes")))
	assert.Equal(t,
		testSupabaseURL+"/storage/v1/object/public/project-images/abc.png",
		storage.PublicURL("abc.png"))
}

func TestSupabaseStorage_UploadError(t *testing.T) {
	client := setupSupabaseMock(t)
	storage := NewSupabaseStorage(client, testSupabaseURL, "missing")

	httpmock.RegisterResponder(http.MethodPost, testSupabaseURL+"/storage/v1/object/missing/abc.png",
		httpmock.NewJsonResponderOrPanic(http.StatusNotFound, map[string]string{
			"statusCode": "404",
			"error":      "Bucket not found",
			"message":    "Bucket not found",
		}))

	err := storage.Upload(context.Background(), "abc.png", "image/png", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bucket not found")
}

func TestSupabaseStorage_Remove(t *testing.T) {
	client := setupSupabaseMock(t)
	storage := NewSupabaseStorage(client, testSupabaseURL, "project-images")

	httpmock.RegisterResponder(http.MethodDelete, testSupabaseURL+"/storage/v1/object/project-images/abc.png",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]string{"message": "Successfully deleted"}))
	httpmock.RegisterResponder(http.MethodDelete, testSupabaseURL+"/storage/v1/object/project-images/gone.png",
		httpmock.NewJsonResponderOrPanic(http.StatusNotFound, map[string]string{"error": "not_found", "message": "Object not found"}))

	require.NoError(t, storage.Remove(context.Background(), "abc.png"))

	err := storage.Remove(context.Background(), "gone.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Object not found")
	assert.Equal(t, 2, httpmock.GetTotalCallCount())
}
