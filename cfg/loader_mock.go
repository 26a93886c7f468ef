package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (yl *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "github-recommender",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			Database:              "github_recommender",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
		},

		// GithubApi
		GithubApi: GithubApi{
			ApiUrl:            "https://api.github.com",
			AccessToken:       "",
			UsePat:            false,
			PerPage:           100,
			MaxAttempts:       3,
			BackoffDelayMs:    1500,
			RequestsPerSecond: 1,
			ThrottleDelay:     200,
			RateLimitResetMin: 1,
		},

		// Clickhouse
		Clickhouse: Clickhouse{
			Url:            "https://play.clickhouse.com",
			Table:          "github_events",
			Username:       "explorer",
			Password:       "",
			TimeoutSec:     60,
			MaxRetries:     3,
			RetryBackoffMs: 1000,
		},

		// Recommender
		Recommender: Recommender{
			Seed:              "octocat",
			Backend:           BackendLive,
			Kind:              KindStars,
			OrderBy:           OrderByStargazers,
			TopN:              10,
			MinCooccurrence:   1,
			MaxNeighbors:      50,
			StarsPerNeighbor:  100,
			StargazersPerRepo: 200,
			ReposToProcess:    10,
			MaxWorkers:        2,
		},

		// Cache
		Cache: Cache{
			Dir:           "data/cache",
			MemoryEntries: 512,
		},

		// Snapshot
		Snapshot: Snapshot{
			Dir: "data",
		},

		// Kafka
		Kafka: Kafka{
			Enabled: false,
			Brokers: []string{},
			Producer: KafkaProducer{
				TopicRecommendation: "recommendations",
			},
		},

		// Ui
		Ui: Ui{
			Port: 8080,
		},
	}, nil
}
