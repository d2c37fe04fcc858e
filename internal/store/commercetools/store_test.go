package commercetools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviews-service/internal/domain"
	apperrors "github.com/utafrali/reviews-service/pkg/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestPlatform runs a fake auth and API endpoint in one server. The
// handler receives API requests; auth token requests are answered inline.
func newTestPlatform(t *testing.T, handler http.HandlerFunc) (*httptest.Server, Config) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, Config{
		ProjectKey:   "test-project",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      srv.URL,
		APIURL:       srv.URL,
	}
}

func TestConfigComplete(t *testing.T) {
	cfg := Config{
		ProjectKey: "p", ClientID: "c", ClientSecret: "s",
		AuthURL: "https://auth", APIURL: "https://api",
	}
	assert.True(t, cfg.Complete())

	cfg.ClientSecret = ""
	assert.False(t, cfg.Complete())
	assert.False(t, Config{}.Complete())
}

func TestNewClientBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(context.Background(), Config{
		ProjectKey: "p", ClientID: "bad", ClientSecret: "bad",
		AuthURL: srv.URL, APIURL: srv.URL,
	}, discardLogger())
	require.Error(t, err)
}

func TestFetchAll(t *testing.T) {
	var gotQuery string
	_, cfg := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("where")
		json.NewEncoder(w).Encode(map[string]any{
			"total": 2,
			"results": []map[string]any{
				{
					"id": "rev-1", "version": 1, "authorName": "Alice",
					"text": "good", "rating": 4,
					"createdAt": "2025-05-01T10:00:00.000Z",
					"custom": map[string]any{
						"fields": map[string]any{"verified": true, "submitterId": "user-1"},
					},
				},
				{
					"id": "rev-2", "version": 3, "authorName": "Bob",
					"rating": 2, "createdAt": "2025-05-02T10:00:00.000Z",
				},
			},
		})
	})

	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	store := New(client, discardLogger())

	got, err := store.FetchAll(context.Background(), "test-product-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Contains(t, gotQuery, `key="test-product-1"`)
	assert.Equal(t, "rev-1", got[0].ID)
	assert.True(t, got[0].Verified)
	assert.Equal(t, "user-1", got[0].SubmitterID)
	assert.Equal(t, "test-product-1", got[0].ProductID)
	assert.False(t, got[1].Verified)
	assert.Equal(t, 3, got[1].Version)
}

func TestFetchAllUsesIDPredicateForUUID(t *testing.T) {
	var gotQuery string
	_, cfg := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("where")
		json.NewEncoder(w).Encode(map[string]any{"total": 0, "results": []any{}})
	})

	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	store := New(client, discardLogger())

	_, err = store.FetchAll(context.Background(), "9f8b2c1d-3e4f-4a5b-8c6d-7e8f9a0b1c2d")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, `id="9f8b2c1d-3e4f-4a5b-8c6d-7e8f9a0b1c2d"`)
}

func TestFetchAllPagesLargeResultSets(t *testing.T) {
	const total = fetchLimit + 100

	var offsets []int
	_, cfg := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)

		count := fetchLimit
		if offset+count > total {
			count = total - offset
		}
		results := make([]map[string]any, 0, count)
		for i := 0; i < count; i++ {
			results = append(results, map[string]any{
				"id": fmt.Sprintf("rev-%d", offset+i), "version": 1,
				"authorName": "Alice", "rating": 4,
				"createdAt": "2025-05-01T10:00:00.000Z",
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"total": total, "results": results})
	})

	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	store := New(client, discardLogger())

	got, err := store.FetchAll(context.Background(), "test-product-1")
	require.NoError(t, err)
	require.Len(t, got, total)

	assert.Equal(t, []int{0, fetchLimit}, offsets)
	assert.Equal(t, "rev-0", got[0].ID)
	assert.Equal(t, fmt.Sprintf("rev-%d", total-1), got[total-1].ID)
}

func TestInsert(t *testing.T) {
	var gotDraft map[string]any
	_, cfg := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotDraft))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id": "rev-new", "version": 1, "authorName": "Alice",
			"text": "nice", "rating": 5,
			"createdAt": "2025-05-03T10:00:00.000Z",
			"custom": map[string]any{
				"fields": map[string]any{"verified": false, "submitterId": "user-9"},
			},
		})
	})

	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	store := New(client, discardLogger())

	created, err := store.Insert(context.Background(), domain.ReviewDraft{
		ProductID:   "test-product-1",
		AuthorName:  "Alice",
		Rating:      5,
		Comment:     "nice",
		SubmitterID: "user-9",
	})
	require.NoError(t, err)

	assert.Equal(t, "rev-new", created.ID)
	assert.Equal(t, "user-9", created.SubmitterID)
	assert.Equal(t, "test-product-1:user-9", gotDraft["uniquenessValue"])

	target := gotDraft["target"].(map[string]any)
	assert.Equal(t, "test-product-1", target["key"])
	assert.Nil(t, target["id"])
}

func TestInsertDuplicate(t *testing.T) {
	_, cfg := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 400,
			"message":    "A duplicate value '\"test-product-1:user-9\"' exists for field 'uniquenessValue'.",
			"errors": []map[string]any{
				{"code": "DuplicateField", "field": "uniquenessValue"},
			},
		})
	})

	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	store := New(client, discardLogger())

	_, err = store.Insert(context.Background(), domain.ReviewDraft{
		ProductID: "test-product-1", AuthorName: "Alice", Rating: 5, SubmitterID: "user-9",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateSubmission))
}

func TestInsertValidationRejectionIsNotDuplicate(t *testing.T) {
	_, cfg := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"statusCode": 400,
			"message":    "The value '7' is not valid for field 'rating'.",
			"errors": []map[string]any{
				{"code": "InvalidField", "field": "rating"},
			},
		})
	})

	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	store := New(client, discardLogger())

	_, err = store.Insert(context.Background(), domain.ReviewDraft{
		ProductID: "test-product-1", AuthorName: "Alice", Rating: 7, SubmitterID: "user-9",
	})
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrDuplicateSubmission))
	assert.Contains(t, err.Error(), "not valid for field 'rating'")
}

func TestRemove(t *testing.T) {
	var gotPath, gotVersion string
	_, cfg := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		gotVersion = r.URL.Query().Get("version")
		json.NewEncoder(w).Encode(map[string]any{"id": "rev-1", "version": 2})
	})

	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	store := New(client, discardLogger())

	require.NoError(t, store.Remove(context.Background(), "rev-1", 2))
	assert.Equal(t, "/test-project/reviews/rev-1", gotPath)
	assert.Equal(t, "2", gotVersion)
}

func TestRemoveNotFound(t *testing.T) {
	_, cfg := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"statusCode": 404, "message": "not found"})
	})

	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	store := New(client, discardLogger())

	err = store.Remove(context.Background(), "missing", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestPing(t *testing.T) {
	healthy := true
	_, cfg := newTestPlatform(t, func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"total": 0, "results": []any{}})
	})

	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	store := New(client, discardLogger())

	assert.True(t, store.Ping(context.Background()))

	healthy = false
	assert.False(t, store.Ping(context.Background()))
}
