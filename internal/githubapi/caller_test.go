package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/pkg/log"
)

func newTestCaller(t *testing.T, serverUrl string) *Caller {
	t.Helper()
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	config.GithubApi.ApiUrl = serverUrl
	config.GithubApi.UsePat = true
	config.GithubApi.AccessToken = "test-token"
	config.GithubApi.RequestsPerSecond = 1000
	config.GithubApi.MaxAttempts = 3
	config.GithubApi.BackoffDelayMs = 1
	logger, _ := log.NewNopLogger()
	return NewCaller(logger, config)
}

func TestExtractLastPage(t *testing.T) {
	cases := []struct {
		link string
		want int
	}{
		{"", 1},
		{`<https://api.github.com/user/1/starred?page=2>; rel="next"`, 1},
		{`<https://api.github.com/user/1/starred?page=2>; rel="next", <https://api.github.com/user/1/starred?page=7>; rel="last"`, 7},
		{`<https://api.github.com/user/1/starred?per_page=100&page=34>; rel="last"`, 34},
		{`<::bad::url>; rel="last"`, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, extractLastPage(c.link), "link %q", c.link)
	}
}

func TestUserStarredSinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/starred", r.URL.Path)
		assert.Equal(t, "token test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"full_name":"org/repo-a","stargazers_count":10},{"full_name":"org/repo-b","stargazers_count":3}]`)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	repos, err := c.UserStarred(context.Background(), "octocat", 0)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "org/repo-a", repos[0].FullName)
}

func TestUserStarredFollowsLinkHeader(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page <= 1 {
			w.Header().Set("Link", fmt.Sprintf(`<%s/users/octocat/starred?page=2>; rel="next", <%s/users/octocat/starred?page=3>; rel="last"`, server.URL, server.URL))
		}
		fmt.Fprintf(w, `[{"full_name":"org/repo-%d"}]`, page)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	repos, err := c.UserStarred(context.Background(), "octocat", 0)
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, "org/repo-1", repos[0].FullName)
	assert.Equal(t, "org/repo-3", repos[2].FullName)
}

func TestPaginateStopsAtLimit(t *testing.T) {
	var calls int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page <= 1 {
			w.Header().Set("Link", fmt.Sprintf(`<%s/users/octocat/starred?page=10>; rel="last"`, server.URL))
		}
		fmt.Fprintf(w, `[{"full_name":"org/a-%d"},{"full_name":"org/b-%d"}]`, page, page)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	repos, err := c.UserStarred(context.Background(), "octocat", 3)
	require.NoError(t, err)
	// Cắt đúng limit và không fetch thêm trang thừa
	assert.Len(t, repos, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestUserStarredNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	repos, err := c.UserStarred(context.Background(), "ghost", 0)
	// 404 là empty, không phải lỗi
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestGetJSONRetriesServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[{"full_name":"org/repo-a"}]`)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	repos, err := c.UserStarred(context.Background(), "octocat", 0)
	require.NoError(t, err)
	assert.Len(t, repos, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSONExhaustsRetryBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	repos, err := c.UserStarred(context.Background(), "octocat", 0)
	require.Error(t, err)
	assert.Empty(t, repos)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSONWaitsForRateLimitReset(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(1*time.Second).Unix(), 10))
			http.Error(w, "API rate limit exceeded", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `[{"full_name":"org/repo-a"}]`)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	// MaxAttempts = 1 để chứng minh lần chờ rate limit không ăn vào retry budget
	c.Config.GithubApi.MaxAttempts = 1

	start := time.Now()
	repos, err := c.UserStarred(context.Background(), "octocat", 0)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, repos, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	// Có chờ thật sự trước khi resume
	assert.GreaterOrEqual(t, elapsed, time.Second)
}

func TestGetJSONRateLimitWithoutResetHeaderIsNotLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 403 không có X-RateLimit-Reset: không phải rate limit, coi như không có dữ liệu
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	repos, err := c.UserStarred(context.Background(), "octocat", 0)
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestUserStarredSkipsMalformedItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"full_name":"org/repo-a"},"không phải object",{"full_name":"org/repo-b"}]`)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	repos, err := c.UserStarred(context.Background(), "octocat", 0)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "org/repo-b", repos[1].FullName)
}

func TestRepoStargazers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/org/repo-a/stargazers", r.URL.Path)
		fmt.Fprint(w, `[{"login":"u1"},{"login":"u2"}]`)
	}))
	defer server.Close()

	c := newTestCaller(t, server.URL)
	stargazers, err := c.RepoStargazers(context.Background(), "org/repo-a", 0)
	require.NoError(t, err)
	require.Len(t, stargazers, 2)
	assert.Equal(t, "u1", stargazers[0].Login)
}
