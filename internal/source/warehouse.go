package source

import (
	"context"
	"fmt"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/internal/recommender"
	"github.com/thep200/github-recommender/internal/warehouse"
	"github.com/thep200/github-recommender/pkg/log"
)

type Warehouse struct {
	Logger log.Logger
	Config *cfg.Config
	client *warehouse.Client
	qb     *warehouse.QueryBuilder
}

func NewWarehouse(logger log.Logger, config *cfg.Config) (*Warehouse, error) {
	if config.Clickhouse.Table == "" {
		return nil, fmt.Errorf("warehouse source cần clickhouse.table")
	}
	return &Warehouse{
		Logger: logger,
		Config: config,
		client: warehouse.NewClient(logger, config),
		qb:     warehouse.NewQueryBuilder(config.Clickhouse.Table),
	}, nil
}

// UserStars lấy các repo user đã star từ event log, mới nhất trước.
// Kết quả rỗng nghĩa là user không có dữ liệu, không phải lỗi.
func (w *Warehouse) UserStars(ctx context.Context, login string, limit int) ([]recommender.Repo, error) {
	rows, err := w.client.Query(ctx, w.qb.UserStars(login, limit))
	if err != nil {
		return nil, err
	}

	repos := make([]recommender.Repo, 0, len(rows))
	for _, row := range rows {
		fullName := warehouse.AsString(row["repo_name"])
		if fullName == "" {
			continue
		}
		repos = append(repos, recommender.Repo{FullName: fullName})
	}

	return repos, nil
}

// RepoStargazers lấy các actor đã star repo từ event log, mới nhất trước
func (w *Warehouse) RepoStargazers(ctx context.Context, fullName string, limit int) ([]string, error) {
	rows, err := w.client.Query(ctx, w.qb.RepoStargazers(fullName, limit))
	if err != nil {
		return nil, err
	}

	logins := make([]string, 0, len(rows))
	for _, row := range rows {
		login := warehouse.AsString(row["actor_login"])
		if login == "" {
			continue
		}
		logins = append(logins, login)
	}

	return logins, nil
}

// OverlapCandidates chạy câu query gộp duy nhất cho một subject repo.
// Ngưỡng và limit được đẩy xuống query, tương đương với việc áp dụng phía client.
func (w *Warehouse) OverlapCandidates(ctx context.Context, fullName string) ([]recommender.Candidate, error) {
	r := w.Config.Recommender
	sql := w.qb.Overlap(warehouse.OverlapOptions{
		Repo:              fullName,
		Kind:              r.Kind,
		StargazersPerRepo: r.StargazersPerRepo,
		StarsPerNeighbor:  r.StarsPerNeighbor,
		MinCooccurrence:   r.MinCooccurrence,
		MinStargazers:     r.MinStargazers,
		MinForkers:        r.MinForkers,
		MinRatio:          r.MinRatio,
		OrderBy:           r.OrderBy,
		Limit:             r.QueryLimit,
	})

	rows, err := w.client.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	candidates := make([]recommender.Candidate, 0, len(rows))
	for _, row := range rows {
		repo := warehouse.AsString(row["neighbor_repo"])
		if repo == "" {
			continue
		}
		c := recommender.Candidate{
			Repo:       repo,
			Stargazers: warehouse.AsInt(row["stargazers"]),
			Forkers:    warehouse.AsInt(row["forkers"]),
		}
		if ratio, ok := warehouse.AsFloat(row["ratio"]); ok {
			c.Ratio = ratio
			c.HasRatio = true
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// NewSource chọn biến thể edge source theo cấu hình backend
func NewSource(logger log.Logger, config *cfg.Config) (recommender.Source, error) {
	switch config.Recommender.Backend {
	case cfg.BackendWarehouse:
		return NewWarehouse(logger, config)
	case cfg.BackendLive:
		return NewLive(logger, config)
	default:
		return nil, fmt.Errorf("backend không được hỗ trợ: %s", config.Recommender.Backend)
	}
}
