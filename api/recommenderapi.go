// Package api cung cấp API public để chạy recommender và theo dõi tiến trình
package api

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/internal/cache"
	"github.com/thep200/github-recommender/internal/model"
	"github.com/thep200/github-recommender/internal/recommender"
	"github.com/thep200/github-recommender/internal/snapshot"
	"github.com/thep200/github-recommender/internal/source"
	kafkapkg "github.com/thep200/github-recommender/pkg/kafka"
	"github.com/thep200/github-recommender/pkg/log"
)

// RunStats chứa thống kê về một lần chạy recommender
type RunStats struct {
	Seed              string    `json:"seed"`
	Backend           string    `json:"backend"`
	IsRunning         bool      `json:"isRunning"`
	StartTime         time.Time `json:"startTime"`
	Duration          string    `json:"duration"`
	SubjectsProcessed int       `json:"subjectsProcessed"`
	NeighborsSampled  int       `json:"neighborsSampled"`
	NeighborsWithData int       `json:"neighborsWithData"`
	Recommendations   int       `json:"recommendations"`
	LastError         string    `json:"lastError"`
}

// RecommenderAPI gom các thành phần lại thành một façade cho cmd và các caller khác
type RecommenderAPI struct {
	ctx      context.Context
	config   *cfg.Config
	logger   log.Logger
	engine   *recommender.Engine
	writer   *snapshot.Writer
	producer *kafkapkg.Producer

	runStatsMu sync.RWMutex
	runStats   *RunStats
	running    bool
}

func NewRecommenderAPI() *RecommenderAPI {
	return &RecommenderAPI{
		runStats: &RunStats{},
	}
}

// Initialize khởi tạo các thành phần cần thiết từ cấu hình
func (a *RecommenderAPI) Initialize(ctx context.Context) error {
	a.ctx = ctx

	var err error

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	a.config, err = loader.Load()
	if err != nil {
		a.logger, _ = log.NewCslLogger()
		a.logger.Error(ctx, "Failed to load configuration: %v", err)
		return err
	}

	// Set up logger
	a.logger, err = log.NewCslLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	// Edge source theo backend cấu hình
	src, err := source.NewSource(a.logger, a.config)
	if err != nil {
		return fmt.Errorf("failed to create edge source: %w", err)
	}

	// Cache theo từng loại entity
	userCache, err := cache.NewStore(filepath.Join(a.config.Cache.Dir, "users"), a.config.Cache.MemoryEntries)
	if err != nil {
		return fmt.Errorf("failed to create user cache: %w", err)
	}
	stargazerCache, err := cache.NewStore(filepath.Join(a.config.Cache.Dir, "stargazers"), a.config.Cache.MemoryEntries)
	if err != nil {
		return fmt.Errorf("failed to create stargazer cache: %w", err)
	}

	a.engine, err = recommender.NewEngine(a.logger, a.config, src, userCache, stargazerCache)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	a.writer, err = snapshot.NewWriter(a.logger, a.config.Snapshot.Dir)
	if err != nil {
		return fmt.Errorf("failed to create snapshot writer: %w", err)
	}

	// Kafka producer chỉ khi được bật
	if a.config.Kafka.Enabled {
		a.producer, err = kafkapkg.NewProducer(a.config, a.logger, a.config.Kafka.Producer.TopicRecommendation)
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
	}

	return nil
}

// Config trả về cấu hình đã load, chỉ dùng sau Initialize
func (a *RecommenderAPI) Config() *cfg.Config {
	return a.config
}

// Run chạy recommender cho seed trong cấu hình, ghi snapshot và publish kết quả
func (a *RecommenderAPI) Run(ctx context.Context) (*recommender.Result, error) {
	if a.engine == nil {
		return nil, errors.New("recommender api is not initialized")
	}

	a.runStatsMu.Lock()
	if a.running {
		a.runStatsMu.Unlock()
		return nil, errors.New("a run is already in progress")
	}
	a.running = true
	a.runStats = &RunStats{
		Seed:      a.config.Recommender.Seed,
		Backend:   a.config.Recommender.Backend,
		IsRunning: true,
		StartTime: time.Now(),
	}
	a.runStatsMu.Unlock()

	result, err := a.engine.Recommend(ctx, a.config.Recommender.Seed)

	a.updateRunStats(func(stats *RunStats) {
		stats.IsRunning = false
		stats.Duration = time.Since(stats.StartTime).String()
		if err != nil {
			stats.LastError = err.Error()
			return
		}
		stats.SubjectsProcessed = len(result.Subjects)
		for _, subject := range result.Subjects {
			stats.NeighborsSampled += subject.NeighborsSampled
			stats.NeighborsWithData += subject.NeighborsWithData
			stats.Recommendations += len(subject.Recommendations)
		}
	})

	a.runStatsMu.Lock()
	a.running = false
	a.runStatsMu.Unlock()

	if err != nil {
		return nil, err
	}

	// Ghi snapshot: latest + timestamped + từng subject
	if errWrite := a.writer.WriteResult(ctx, result); errWrite != nil {
		a.logger.Error(ctx, "Không ghi được snapshot: %v", errWrite)
	}
	for _, subject := range result.Subjects {
		if errWrite := a.writer.WriteSubject(ctx, result.GeneratedAt, subject); errWrite != nil {
			a.logger.Error(ctx, "Không ghi được snapshot cho %s: %v", subject.Repo, errWrite)
		}
	}

	// Publish từng khuyến nghị để consumer lưu vào database
	if a.producer != nil {
		a.publish(ctx, result)
	}

	return result, nil
}

func (a *RecommenderAPI) publish(ctx context.Context, result *recommender.Result) {
	for _, subject := range result.Subjects {
		for _, entry := range subject.Recommendations {
			msg := model.RecommendationMessage{
				SeedRepo:      subject.Repo,
				CandidateRepo: entry.Repo,
				Stargazers:    entry.Stargazers,
				Forkers:       entry.Forkers,
				Ratio:         entry.Ratio,
				GeneratedAt:   result.GeneratedAt,
			}
			if err := a.producer.Publish(ctx, "recommendation", msg); err != nil {
				a.logger.Error(ctx, "Không publish được khuyến nghị %s -> %s: %v", subject.Repo, entry.Repo, err)
			}
		}
	}
}

// Close giải phóng các tài nguyên đã mở
func (a *RecommenderAPI) Close() error {
	if a.producer != nil {
		return a.producer.Close()
	}
	return nil
}

// GetRunStats trả về thống kê của lần chạy gần nhất
func (a *RecommenderAPI) GetRunStats() (*RunStats, error) {
	a.runStatsMu.RLock()
	defer a.runStatsMu.RUnlock()

	if a.runStats == nil {
		return &RunStats{}, nil
	}

	stats := *a.runStats
	if stats.IsRunning {
		stats.Duration = time.Since(stats.StartTime).String()
	}

	return &stats, nil
}

// updateRunStats cập nhật thống kê một cách an toàn
func (a *RecommenderAPI) updateRunStats(updateFn func(*RunStats)) {
	a.runStatsMu.Lock()
	defer a.runStatsMu.Unlock()

	if a.runStats == nil {
		a.runStats = &RunStats{}
	}

	updateFn(a.runStats)
}
