package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/internal/githubapi"
	"github.com/thep200/github-recommender/pkg/log"
)

func liveConfig(t *testing.T, serverUrl string) *cfg.Config {
	t.Helper()
	loader, _ := cfg.NewMockLoader()
	config, _ := loader.Load()
	config.GithubApi.ApiUrl = serverUrl
	config.GithubApi.UsePat = true
	config.GithubApi.AccessToken = "test-token"
	config.GithubApi.RequestsPerSecond = 1000
	config.GithubApi.BackoffDelayMs = 1
	return config
}

func TestKeepRepo(t *testing.T) {
	cases := []struct {
		name string
		repo githubapi.RepoSummary
		want bool
	}{
		{"repo bình thường", githubapi.RepoSummary{FullName: "org/a", StargazersCount: 100}, true},
		{"fork nhiều sao", githubapi.RepoSummary{FullName: "org/b", Fork: true, StargazersCount: 60}, true},
		{"fork ít sao", githubapi.RepoSummary{FullName: "org/c", Fork: true, StargazersCount: 49}, false},
		{"repo quá nhỏ", githubapi.RepoSummary{FullName: "org/d", StargazersCount: 4}, false},
		{"đúng ngưỡng nhỏ nhất", githubapi.RepoSummary{FullName: "org/e", StargazersCount: 5}, true},
		{"thiếu full_name", githubapi.RepoSummary{StargazersCount: 100}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, keepRepo(tc.repo), tc.name)
	}
}

func TestLiveUserStarsFiltersAndCaps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"full_name":"org/keep-1","stargazers_count":100},
			{"full_name":"org/noisy-fork","fork":true,"stargazers_count":10},
			{"full_name":"org/tiny","stargazers_count":2},
			{"full_name":"org/keep-2","stargazers_count":50},
			{"full_name":"org/keep-3","stargazers_count":30}
		]`)
	}))
	defer server.Close()

	live, err := NewLive(mustNopLogger(t), liveConfig(t, server.URL))
	require.NoError(t, err)

	repos, err := live.UserStars(context.Background(), "octocat", 2)
	require.NoError(t, err)
	// Lọc trước rồi mới cắt limit
	require.Len(t, repos, 2)
	assert.Equal(t, "org/keep-1", repos[0].FullName)
	assert.Equal(t, "org/keep-2", repos[1].FullName)
}

func TestLiveUserStarsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	live, err := NewLive(mustNopLogger(t), liveConfig(t, server.URL))
	require.NoError(t, err)

	repos, err := live.UserStars(context.Background(), "ghost", 0)
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestLiveRepoStargazersSkipsEmptyLogins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"login":"u1"},{"login":""},{"login":"u2"}]`)
	}))
	defer server.Close()

	live, err := NewLive(mustNopLogger(t), liveConfig(t, server.URL))
	require.NoError(t, err)

	logins, err := live.RepoStargazers(context.Background(), "org/repo-a", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, logins)
}

func mustNopLogger(t *testing.T) log.Logger {
	t.Helper()
	logger, err := log.NewNopLogger()
	require.NoError(t, err)
	return logger
}
