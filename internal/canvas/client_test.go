package canvas

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"discussion-grader/internal/config"
	"discussion-grader/internal/model"
	"discussion-grader/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	query  map[string][]string
	auth   string
	body   []byte
}

type fakeCanvas struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeCanvas) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.Query(),
		auth:   r.Header.Get("Authorization"),
		body:   body,
	})
	f.mu.Unlock()
	f.handler(w, r)
}

func newTestClient(t *testing.T, pageSize int, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *fakeCanvas) {
	t.Helper()
	fake := &fakeCanvas{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Canvas.BaseURL = srv.URL + "/"
	cfg.Canvas.APIKey = "secret-token"
	cfg.Canvas.PageSize = pageSize
	return NewClient(cfg), fake
}

// pagedItems serves total items split into pages of per_page.
func pagedItems(total int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		items := []map[string]any{}
		for i := (page - 1) * perPage; i < page*perPage && i < total; i++ {
			items = append(items, map[string]any{"id": i + 1, "user_id": 100 + i, "message": fmt.Sprintf("entry %d", i+1)})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(items)
	}
}

func TestFetchPagedStopsOnShortPage(t *testing.T) {
	client, fake := newTestClient(t, 2, pagedItems(5))

	entries, err := client.ListDiscussionEntries(testContext(t), 1, 2)
	require.NoError(t, err)

	require.Len(t, entries, 5)
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.ID)
	}
	// 2 + 2 + 1
	require.Len(t, fake.requests, 3)
	for i, r := range fake.requests {
		assert.Equal(t, "/api/v1/courses/1/discussion_topics/2/entries", r.path)
		assert.Equal(t, strconv.Itoa(i+1), r.query["page"][0])
		assert.Equal(t, "2", r.query["per_page"][0])
		assert.Equal(t, "Bearer secret-token", r.auth)
	}
}

func TestFetchPagedStopsOnEmptyPage(t *testing.T) {
	client, fake := newTestClient(t, 2, pagedItems(4))

	entries, err := client.ListDiscussionEntries(testContext(t), 1, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.Len(t, fake.requests, 3)
}

// Canvas never returns more than 100 items per page whatever per_page asks for.
func clampedItems(total int) func(w http.ResponseWriter, r *http.Request) {
	serve := pagedItems(total)
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if n, _ := strconv.Atoi(q.Get("per_page")); n > 100 {
			q.Set("per_page", "100")
			r.URL.RawQuery = q.Encode()
		}
		serve(w, r)
	}
}

func TestOversizedPageSizeIsClamped(t *testing.T) {
	client, fake := newTestClient(t, 150, clampedItems(250))

	entries, err := client.ListDiscussionEntries(testContext(t), 1, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 250)
	require.Len(t, fake.requests, 3)
	assert.Equal(t, "100", fake.requests[0].query["per_page"][0])
}

func TestListStudentsSendsSameParamsOnEveryPage(t *testing.T) {
	client, fake := newTestClient(t, 1, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `[{"id": 1, "name": "Alice", "login_id": "alice", "email": "a@example.edu"}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	})

	students, err := client.ListStudents(testContext(t), 42)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "alice", students[0].LoginID)

	require.Len(t, fake.requests, 2)
	for _, r := range fake.requests {
		assert.Equal(t, "/api/v1/courses/42/students", r.path)
		assert.ElementsMatch(t, []string{"email", "login_id"}, r.query["include[]"])
	}
}

func TestGetDiscussion(t *testing.T) {
	client, _ := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/1/discussion_topics/2", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("page"))
		fmt.Fprint(w, `{"id": 2, "title": "Week 1", "message": "<p>Prompt</p>", "assignment_id": 555}`)
	})

	d, err := client.GetDiscussion(testContext(t), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Week 1", d.Title)
	assert.Equal(t, "<p>Prompt</p>", d.Message)
	require.NotNil(t, d.AssignmentID)
	assert.Equal(t, int64(555), *d.AssignmentID)
}

func TestNonSuccessStatusIsTransportError(t *testing.T) {
	client, _ := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors":[{"message":"Invalid access token."}]}`)
	})

	_, err := client.GetDiscussion(testContext(t), 1, 2)
	require.Error(t, err)

	var te *errors.TransportError
	require.True(t, stderrors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Equal(t, http.MethodGet, te.Method)
	assert.Contains(t, te.Body, "Invalid access token")
	assert.True(t, errors.IsTransport(err))
}

func TestServerErrorIsRetryable(t *testing.T) {
	client, _ := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.ListStudents(testContext(t), 1)
	require.Error(t, err)

	var retryable errors.RetryableError
	assert.True(t, stderrors.As(err, &retryable))
}

func TestPagingErrorAbortsWholeFetch(t *testing.T) {
	client, _ := newTestClient(t, 1, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `[{"id": 1, "user_id": 1, "message": "hi"}]`)
	})

	entries, err := client.ListDiscussionEntries(testContext(t), 1, 2)
	assert.Nil(t, entries)
	assert.True(t, errors.IsTransport(err))
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	cfg := config.Default()
	cfg.Canvas.BaseURL = "http://127.0.0.1:1"
	cfg.Canvas.APIKey = "k"
	client := NewClient(cfg)

	_, err := client.GetDiscussion(testContext(t), 1, 2)

	var te *errors.TransportError
	require.True(t, stderrors.As(err, &te))
	assert.Zero(t, te.StatusCode)
}

func TestSubmitGrade(t *testing.T) {
	client, fake := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 9, "user_id": 7, "grade": "A", "score": 95}`)
	})

	resp, err := client.SubmitGrade(testContext(t), 1, 555, 7, "A", "Nice work")
	require.NoError(t, err)
	assert.Equal(t, "A", resp.Grade)

	require.Len(t, fake.requests, 1)
	r := fake.requests[0]
	assert.Equal(t, http.MethodPut, r.method)
	assert.Equal(t, "/api/v1/courses/1/assignments/555/submissions/7", r.path)
	assert.JSONEq(t, `{"submission":{"posted_grade":"A"},"comment":{"text_comment":"Nice work"}}`, string(r.body))
}

func TestSubmitGradeOmitsEmptyComment(t *testing.T) {
	client, fake := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	_, err := client.SubmitGrade(testContext(t), 1, 555, 7, "85", "")
	require.NoError(t, err)

	var payload model.GradeSubmission
	require.NoError(t, json.Unmarshal(fake.requests[0].body, &payload))
	assert.Equal(t, "85", payload.Submission.PostedGrade)
	assert.Nil(t, payload.Comment)
}
