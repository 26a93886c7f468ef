// Gói cfg định nghĩa cấu hình cho recommender.
// Mọi option được liệt kê tường minh tại đây và được validate một lần khi khởi động.
package cfg

import (
	"fmt"
	"strings"
)

// Các backend nguồn dữ liệu được hỗ trợ
const (
	BackendLive      = "live"
	BackendWarehouse = "warehouse"
)

// Các khóa xếp hạng được hỗ trợ
const (
	OrderByStargazers = "stargazers"
	OrderByForkers    = "forkers"
	OrderByRatio      = "ratio"
)

// Các loại tương tác được tính overlap
const (
	KindStars = "stars"
	KindForks = "forks"
	KindBoth  = "both"
)

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		Database              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
	}

	GithubApi struct {
		ApiUrl            string
		AccessToken       string
		UsePat            bool
		PerPage           int
		MaxAttempts       int
		BackoffDelayMs    int
		RequestsPerSecond int
		ThrottleDelay     int
		RateLimitResetMin int
	}

	Clickhouse struct {
		Url            string
		Table          string
		Username       string
		Password       string
		TimeoutSec     int
		MaxRetries     int
		RetryBackoffMs int
	}

	Recommender struct {
		Seed              string
		Backend           string
		Kind              string
		OrderBy           string
		TopN              int
		MinCooccurrence   int
		MinStargazers     int
		MinForkers        int
		MinRatio          float64
		MaxNeighbors      int
		StarsPerNeighbor  int
		StargazersPerRepo int
		ReposToProcess    int
		QueryLimit        int
		MaxWorkers        int
	}

	Cache struct {
		Dir           string
		MemoryEntries int
	}

	Snapshot struct {
		Dir string
	}

	Kafka struct {
		Enabled  bool
		Brokers  []string
		Producer KafkaProducer
	}

	KafkaProducer struct {
		TopicRecommendation string
	}

	Ui struct {
		Port int
	}
)

type Config struct {
	App         App
	Mysql       Mysql
	GithubApi   GithubApi
	Clickhouse  Clickhouse
	Recommender Recommender
	Cache       Cache
	Snapshot    Snapshot
	Kafka       Kafka
	Ui          Ui
}

// Validate kiểm tra cấu hình một lần khi khởi động.
// Lỗi cấu hình là lỗi fatal, không được phép fetch dữ liệu với config sai.
func (c *Config) Validate() error {
	r := c.Recommender

	if strings.TrimSpace(r.Seed) == "" {
		return fmt.Errorf("cấu hình thiếu recommender.seed (user login hoặc owner/name)")
	}

	switch r.Backend {
	case BackendLive, BackendWarehouse:
	default:
		return fmt.Errorf("recommender.backend không hợp lệ: %q (chỉ hỗ trợ %q hoặc %q)", r.Backend, BackendLive, BackendWarehouse)
	}

	switch r.Kind {
	case KindStars, KindForks, KindBoth:
	default:
		return fmt.Errorf("recommender.kind không hợp lệ: %q", r.Kind)
	}

	switch r.OrderBy {
	case OrderByStargazers, OrderByForkers, OrderByRatio:
	default:
		return fmt.Errorf("recommender.order_by không hợp lệ: %q", r.OrderBy)
	}

	if r.TopN < 0 {
		return fmt.Errorf("recommender.top_n phải >= 0, nhận được %d", r.TopN)
	}
	if r.MinCooccurrence < 1 {
		return fmt.Errorf("recommender.min_cooccurrence phải >= 1, nhận được %d", r.MinCooccurrence)
	}
	if r.MinRatio < 0 {
		return fmt.Errorf("recommender.min_ratio phải >= 0, nhận được %v", r.MinRatio)
	}
	if r.MaxNeighbors < 0 || r.StarsPerNeighbor < 0 || r.StargazersPerRepo < 0 || r.ReposToProcess < 0 {
		return fmt.Errorf("các giới hạn sampling của recommender phải >= 0")
	}
	if r.MaxWorkers < 1 {
		return fmt.Errorf("recommender.max_workers phải >= 1, nhận được %d", r.MaxWorkers)
	}

	if r.Backend == BackendWarehouse {
		if c.Clickhouse.Url == "" || c.Clickhouse.Table == "" {
			return fmt.Errorf("backend warehouse yêu cầu clickhouse.url và clickhouse.table")
		}
	}

	if c.GithubApi.UsePat && c.GithubApi.AccessToken == "" {
		return fmt.Errorf("githubapi.use_pat bật nhưng thiếu githubapi.access_token")
	}
	if c.GithubApi.UsePat && c.GithubApi.RequestsPerSecond < 1 {
		return fmt.Errorf("githubapi.requests_per_second phải >= 1 khi dùng PAT, nhận được %d", c.GithubApi.RequestsPerSecond)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.enabled bật nhưng không có broker nào được cấu hình")
	}

	return nil
}
