package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/shivfurniture/erp/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeS3 records the requests it receives and answers like a minimal
// path-style S3 endpoint
type fakeS3 struct {
	mu       sync.Mutex
	requests []*http.Request
	buckets  map[string]bool
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	f := &fakeS3{buckets: map[string]bool{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Clone(context.Background()))

	bucket, key := splitPath(r.URL.Path)
	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *fakeS3) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func splitPath(p string) (string, string) {
	p = p[1:]
	for i := range len(p) {
		if p[i] == '/' {
			return p[:i], p[i+1:]
		}
	}
	return p, ""
}

func archiveConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:      true,
		Endpoint:     endpoint,
		Region:       "ap-south-1",
		Bucket:       "shiv-reports",
		AccessKey:    "minio",
		SecretKey:    "minio-secret",
		UsePathStyle: true,
	}
}

func TestNewS3ReportArchive_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ReportArchive(nil)
		require.Error(t, err)
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := archiveConfig("http://localhost:9000")
		cfg.Bucket = ""
		_, err := NewS3ReportArchive(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket")
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := archiveConfig("http://localhost:9000")
		cfg.SecretKey = ""
		_, err := NewS3ReportArchive(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key")
	})

	t.Run("defaults the presign expiration", func(t *testing.T) {
		archive, err := NewS3ReportArchive(archiveConfig("http://localhost:9000"))
		require.NoError(t, err)
		assert.Equal(t, "shiv-reports", archive.Bucket())
		assert.Equal(t, 15*time.Minute, archive.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"", false, "http://localhost:9000"},
		{"minio:9000", false, "http://minio:9000"},
		{"s3.ap-south-1.amazonaws.com", true, "https://s3.ap-south-1.amazonaws.com"},
		{"https://storage.shiv.example", false, "https://storage.shiv.example"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.endpoint, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := normalizeEndpoint("http://", false)
	assert.Error(t, err)
}

func TestS3ReportArchive_EnsureBucket(t *testing.T) {
	fake, srv := newFakeS3(t)
	archive, err := NewS3ReportArchive(archiveConfig(srv.URL), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	require.NoError(t, archive.EnsureBucket(context.Background()))
	assert.True(t, fake.buckets["shiv-reports"])

	// second call finds the bucket
	n := len(fake.requests)
	require.NoError(t, archive.EnsureBucket(context.Background()))
	assert.Len(t, fake.requests, n+1)
	assert.Equal(t, http.MethodHead, fake.last().Method)
}

func TestS3ReportArchive_Store(t *testing.T) {
	fake, srv := newFakeS3(t)
	archive, err := NewS3ReportArchive(archiveConfig(srv.URL))
	require.NoError(t, err)

	const key = "budget-summaries/2025/06/budget-summary-2025-06-20250701T093000Z.xlsx"
	err = archive.Store(context.Background(), key, []byte("PK\x03\x04workbook"),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	require.NoError(t, err)

	req := fake.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/shiv-reports/"+key, req.URL.Path)
	assert.Contains(t, req.Header.Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, req.Header.Get("Authorization"), "AWS4-HMAC-SHA256 Credential=minio/")
	assert.Contains(t, req.Header.Get("Authorization"), "/ap-south-1/s3/aws4_request")

	assert.Error(t, archive.Store(context.Background(), "", nil, "text/plain"))
}

func TestS3ReportArchive_DownloadURL(t *testing.T) {
	archive, err := NewS3ReportArchive(archiveConfig("http://localhost:9000"), WithPresignExpiration(time.Hour))
	require.NoError(t, err)
	now := time.Date(2025, time.July, 1, 9, 30, 0, 0, time.UTC)
	archive.now = func() time.Time { return now }

	link, expiresAt, err := archive.DownloadURL(context.Background(), "budget-summaries/2025/06/summary.xlsx")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/shiv-reports/budget-summaries/2025/06/summary.xlsx", u.Path)
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	_, _, err = archive.DownloadURL(context.Background(), "")
	assert.Error(t, err)
}
