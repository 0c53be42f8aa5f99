package storage

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"discussion-grader/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory path-style object store.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = string(body)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		obj, ok := f.objects[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, obj)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3StorageUploadDownload(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Storage.S3 = config.S3Config{
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
		Bucket:    "default-bucket",
		Region:    "us-east-1",
	}

	s, err := NewS3Storage(cfg, "grades")
	require.NoError(t, err)

	require.NoError(t, s.Upload(testContext(t), "course-1/run.json", strings.NewReader(`[{"status":"GRADED"}]`)))
	assert.Equal(t, `[{"status":"GRADED"}]`, fake.objects["/grades/course-1/run.json"])

	rc, err := s.Download(testContext(t), "course-1/run.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `[{"status":"GRADED"}]`, string(data))
}

func TestS3StorageDefaultsToConfiguredBucket(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.S3.Bucket = "default-bucket"
	cfg.Storage.S3.Region = "us-east-1"

	s, err := NewS3Storage(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "default-bucket", s.bucket)
}
