package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
}

func newFakeS3(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	var mu sync.Mutex
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func testConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:         true,
		Endpoint:        endpoint,
		Region:          "us-east-1",
		Bucket:          "invoices",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		Prefix:          "nfe/",
	}
}

func TestNewS3ArtifactStore_Validation(t *testing.T) {
	_, err := NewS3ArtifactStore(context.Background(), nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3ArtifactStore(context.Background(), &config.StorageConfig{})
	assert.ErrorContains(t, err, "bucket is required")
}

func TestS3ArtifactStore_Put(t *testing.T) {
	srv, requests := newFakeS3(t)
	store, err := NewS3ArtifactStore(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)

	err = store.Put(context.Background(), "company/ref.xml", []byte("<nfe/>"), "application/xml")
	require.NoError(t, err)

	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/invoices/nfe/company/ref.xml", reqs[0].Path)
	assert.Equal(t, "application/xml", reqs[0].ContentType)

	assert.ErrorIs(t, store.Put(context.Background(), "", nil, ""), ErrKeyRequired)
}

func TestS3ArtifactStore_DownloadURL(t *testing.T) {
	store, err := NewS3ArtifactStore(context.Background(), testConfig("http://localhost:9000"))
	require.NoError(t, err)

	url, err := store.DownloadURL(context.Background(), "company/ref.pdf", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/invoices/nfe/company/ref.pdf?"))
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestS3ArtifactStore_EnsureBucketExisting(t *testing.T) {
	srv, requests := newFakeS3(t)
	store, err := NewS3ArtifactStore(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, store.EnsureBucket(context.Background()))
	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodHead, reqs[0].Method)
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "https://s3.example.com", normalizeEndpoint("s3.example.com"))
	assert.Equal(t, "http://minio:9000", normalizeEndpoint("http://minio:9000"))
}

func TestMemoryArtifactStore(t *testing.T) {
	store := NewMemoryArtifactStore()
	ctx := context.Background()

	data := []byte("%PDF-1.4")
	require.NoError(t, store.Put(ctx, "a.pdf", data, "application/pdf"))
	data[0] = 'X'

	obj, ok := store.Get("a.pdf")
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.4", string(obj.Data), "store keeps its own copy")
	assert.Equal(t, "application/pdf", obj.ContentType)

	url, err := store.DownloadURL(ctx, "a.pdf", 0)
	require.NoError(t, err)
	assert.Equal(t, "memory://artifacts/a.pdf", url)

	assert.ErrorIs(t, store.Put(ctx, "", nil, ""), ErrKeyRequired)
}
