package library

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCreds struct {
	mu      sync.Mutex
	access  string
	refresh string
	updates int
}

func (m *memCreds) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

func (m *memCreds) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

func (m *memCreds) Update(access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
	m.updates++
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "127.0.0.1:3000", u.Host)
	assert.Equal(t, "/", u.Path)

	u, err = parseBaseURL("example.com:1234/v1/?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:1234/v1/", u.String())

	_, err = parseBaseURL("http://")
	assert.Error(t, err)
}

func TestClient_ListEncodesParamsAndHeaders(t *testing.T) {
	t.Parallel()

	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"data":[{"_id":"b1","title":"Dune"}],"page":2,"totalPages":4,"total":31}`))
	}, WithCredentials(&memCreds{access: "tok"}))

	page, err := c.Books().List(context.Background(), ListParams{
		Offset:         2,
		Limit:          5,
		Sort:           "title:desc",
		Search:         "dune",
		IncludeDeleted: true,
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/api/books", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "2", q.Get("offset"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, "title:desc", q.Get("sort"))
	assert.Equal(t, "dune", q.Get("search"))
	assert.Equal(t, "true", q.Get("includeDeleted"))
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.True(t, strings.HasPrefix(got.Header.Get("User-Agent"), "librarian/"))
	_, err = uuid.Parse(got.Header.Get("X-Request-ID"))
	assert.NoError(t, err, "X-Request-ID should be a uuid")

	require.Len(t, page.Data, 1)
	assert.Equal(t, "b1", page.Data[0].EntityID())
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 4, page.TotalPages)
	assert.Equal(t, 31, page.Total)
}

func TestClient_ListDefaultsOffsetAndLimit(t *testing.T) {
	t.Parallel()

	var query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.Topics().List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, "limit=10&offset=1", query)
}

func TestClient_APIErrorCarriesServerMessage(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":400,"message":["title should not be empty","author must be a string"]}`))
	})

	_, err := c.Books().Update(context.Background(), "42", Fields{"title": "x", "author": "y"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, http.MethodPatch, apiErr.Method)
	assert.Equal(t, "api/books/42", apiErr.Path)
	assert.Equal(t, "title should not be empty; author must be a string", apiErr.Message)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
}

func TestClient_UpdateValidatesBeforeSending(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := c.Books().Update(context.Background(), "1", Fields{"title": " leading", "author": "a"})
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.ErrorIs(t, fieldErrs["title"], ErrLeadingSpace)
	assert.Zero(t, calls.Load())
}

func TestClient_UpdateSendsPatchAndDecodesWrappedEntity(t *testing.T) {
	t.Parallel()

	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"message":"updated","data":{"_id":"7","genre":"Poetry","description":"Verse"}}`))
	})

	topic, err := c.Topics().Update(context.Background(), "7", Fields{"genre": "Poetry", "description": "Verse"})
	require.NoError(t, err)
	assert.Equal(t, Topic{ID: "7", Genre: "Poetry", Description: "Verse"}, topic)
	assert.Equal(t, map[string]any{"genre": "Poetry", "description": "Verse"}, body)
}

func TestClient_UpdateClearsEmptiedOptionalFields(t *testing.T) {
	t.Parallel()

	var bodies []map[string]any
	var mu sync.Mutex
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"id":"1"}`))
	})

	_, err := c.Topics().Update(context.Background(), "t1", Fields{"genre": "Poetry", "description": ""})
	require.NoError(t, err)
	_, err = c.Books().Update(context.Background(), "b1", Fields{"title": "Emma", "author": "Austen", "topics": " "})
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, map[string]any{"genre": "Poetry", "description": ""}, bodies[0])
	assert.Equal(t, map[string]any{"title": "Emma", "author": "Austen", "topics": []any{}}, bodies[1])
}

func TestClient_CreateOmitsEmptyOptionalFields(t *testing.T) {
	t.Parallel()

	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"id":"t9","genre":"Poetry"}`))
	})

	_, err := c.Topics().Create(context.Background(), Fields{"genre": "Poetry", "description": ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"genre": "Poetry"}, body)
}

func TestClient_DeleteEscapesID(t *testing.T) {
	t.Parallel()

	var path, method string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.EscapedPath(), r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Users().Delete(context.Background(), "a/b"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/customers/a%2Fb", path)
}

func TestClient_IssuesHaveNoItemEndpoints(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	require.NoError(t, err)

	err = c.Issues().Delete(context.Background(), "1")
	assert.ErrorIs(t, err, errors.ErrUnsupported)
	_, err = c.Issues().Update(context.Background(), "1", Fields{"userId": "u", "bookId": "b"})
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestClient_RefreshesOnceOnUnauthorized(t *testing.T) {
	t.Parallel()

	creds := &memCreds{access: "old", refresh: "r1"}
	var refreshes, lists atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + refreshPath:
			refreshes.Add(1)
			assert.Empty(t, r.Header.Get("Authorization"))
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "r1", body["refreshToken"])
			_, _ = w.Write([]byte(`{"accessToken":"new","refreshToken":"r2"}`))
		case "/api/books":
			lists.Add(1)
			if r.Header.Get("Authorization") != "Bearer new" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[]`))
		}
	}, WithCredentials(creds))

	_, err := c.Books().List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, refreshes.Load())
	assert.EqualValues(t, 2, lists.Load())
	assert.Equal(t, "new", creds.AccessToken())
	assert.Equal(t, "r2", creds.RefreshToken())
}

func TestClient_UnauthorizedWithoutRefreshTokenFails(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, WithCredentials(&memCreds{access: "old"}))

	_, err := c.Books().List(context.Background(), ListParams{})
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestClient_LoginSkipsBearerAndStoresTokens(t *testing.T) {
	t.Parallel()

	creds := &memCreds{access: "stale"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+loginPath, r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"_id":"u1","email":"a@b.c","accessToken":"acc","refreshToken":"ref"}`))
	}, WithCredentials(creds))

	auth, err := c.Login(context.Background(), " a@b.c ", "secret")
	require.NoError(t, err)
	assert.Equal(t, AuthResponse{ID: "u1", Email: "a@b.c", AccessToken: "acc", RefreshToken: "ref"}, auth)
	assert.Equal(t, "acc", creds.AccessToken())
	assert.Equal(t, "ref", creds.RefreshToken())
}

func TestClient_LogoutClearsTokensEvenOnFailure(t *testing.T) {
	t.Parallel()

	creds := &memCreds{access: "acc", refresh: "ref"}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, WithCredentials(creds))

	err := c.Logout(context.Background())
	assert.Error(t, err)
	assert.Empty(t, creds.AccessToken())
	assert.Empty(t, creds.RefreshToken())
}

func TestClient_ReturnBookPostsIDs(t *testing.T) {
	t.Parallel()

	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+issueReturnPath, r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"data":{"_id":"i1","bookId":"b1","userId":"u1","status":"Returned"}}`))
	})

	issue, err := c.ReturnBook(context.Background(), "u1", "b1")
	require.NoError(t, err)
	assert.True(t, issue.Returned())
	assert.Equal(t, map[string]any{"userId": "u1", "bookId": "b1"}, body)
}

func TestClient_TotalsFetchesBothCounters(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + totalBooksPath:
			_, _ = w.Write([]byte(`{"totalBooks":12}`))
		case "/" + totalTopicsPath:
			_, _ = w.Write([]byte(`{"data":{"count":4}}`))
		}
	})

	totals, err := c.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Totals{Books: 12, Topics: 4}, totals)
}

func TestTitleResolver_SharesConcurrentLookups(t *testing.T) {
	t.Parallel()

	var gets atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"id":"b1","title":"Dune"}`))
	})
	resolver := NewTitleResolver(c.Books())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	var wg sync.WaitGroup
	titles := make([]string, 4)
	for i := range titles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			titles[i], _ = resolver.Title(ctx, "b1")
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, []string{"Dune", "Dune", "Dune", "Dune"}, titles)
	assert.EqualValues(t, 1, gets.Load())

	cached, ok := resolver.Cached("b1")
	assert.True(t, ok)
	assert.Equal(t, "Dune", cached)
}
