package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	loader, err := NewMockLoader()
	require.NoError(t, err)
	config, err := loader.Load()
	require.NoError(t, err)
	return config
}

func TestMockLoaderConfigIsValid(t *testing.T) {
	config := validConfig(t)
	assert.NoError(t, config.Validate())
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"thiếu seed", func(c *Config) { c.Recommender.Seed = "" }},
		{"seed toàn khoảng trắng", func(c *Config) { c.Recommender.Seed = "   " }},
		{"backend không hợp lệ", func(c *Config) { c.Recommender.Backend = "csv" }},
		{"kind không hợp lệ", func(c *Config) { c.Recommender.Kind = "watches" }},
		{"order_by không hợp lệ", func(c *Config) { c.Recommender.OrderBy = "score" }},
		{"top_n âm", func(c *Config) { c.Recommender.TopN = -1 }},
		{"min_cooccurrence bằng 0", func(c *Config) { c.Recommender.MinCooccurrence = 0 }},
		{"min_ratio âm", func(c *Config) { c.Recommender.MinRatio = -0.5 }},
		{"max_neighbors âm", func(c *Config) { c.Recommender.MaxNeighbors = -1 }},
		{"max_workers bằng 0", func(c *Config) { c.Recommender.MaxWorkers = 0 }},
		{"warehouse thiếu url", func(c *Config) {
			c.Recommender.Backend = BackendWarehouse
			c.Clickhouse.Url = ""
		}},
		{"warehouse thiếu table", func(c *Config) {
			c.Recommender.Backend = BackendWarehouse
			c.Clickhouse.Table = ""
		}},
		{"use_pat không có token", func(c *Config) {
			c.GithubApi.UsePat = true
			c.GithubApi.AccessToken = ""
		}},
		// requests_per_second = 0 với PAT làm limiter không bao giờ cho phép request
		{"use_pat với requests_per_second bằng 0", func(c *Config) {
			c.GithubApi.UsePat = true
			c.GithubApi.AccessToken = "token"
			c.GithubApi.RequestsPerSecond = 0
		}},
		{"kafka bật không có broker", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Brokers = nil
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := validConfig(t)
			tc.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestValidateAcceptsAllBackendsAndKinds(t *testing.T) {
	for _, backend := range []string{BackendLive, BackendWarehouse} {
		for _, kind := range []string{KindStars, KindForks, KindBoth} {
			config := validConfig(t)
			config.Recommender.Backend = backend
			config.Recommender.Kind = kind
			assert.NoError(t, config.Validate(), "backend=%s kind=%s", backend, kind)
		}
	}
}

func TestValidateTopNZeroMeansUnlimited(t *testing.T) {
	config := validConfig(t)
	config.Recommender.TopN = 0
	assert.NoError(t, config.Validate())
}
