package recommender

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/internal/cache"
	"github.com/thep200/github-recommender/pkg/log"
)

// Số neighbor được fetch song song trong một đợt cho mỗi subject
const neighborFetchChunk = 10

// Engine điều phối toàn bộ pipeline: lấy cạnh của seed, lấy cạnh của các neighbor
// qua cache với số worker bị chặn, gom đếm và xếp hạng.
type Engine struct {
	Logger         log.Logger
	Config         *cfg.Config
	Source         Source
	userCache      *cache.Store
	stargazerCache *cache.Store
}

func NewEngine(logger log.Logger, config *cfg.Config, source Source, userCache, stargazerCache *cache.Store) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("engine cần một edge source")
	}
	return &Engine{
		Logger:         logger,
		Config:         config,
		Source:         source,
		userCache:      userCache,
		stargazerCache: stargazerCache,
	}, nil
}

// Recommend tính khuyến nghị cho một seed.
// Seed chứa "/" là một repository, ngược lại là một user: khi đó mỗi repo
// user đã star trở thành một subject.
// Chỉ lỗi fetch seed là fatal; lỗi của từng neighbor hay từng subject chỉ tạo ra omission.
func (e *Engine) Recommend(ctx context.Context, seed string) (*Result, error) {
	r := e.Config.Recommender
	result := &Result{Seed: seed, GeneratedAt: time.Now().UTC()}

	var subjects []string
	var seedUser string
	if strings.Contains(seed, "/") {
		subjects = []string{seed}
	} else {
		seedUser = seed
		repos, err := e.userStars(ctx, seed, 0)
		if err != nil {
			return nil, fmt.Errorf("không lấy được starred repos của seed %s: %w", seed, err)
		}
		if r.ReposToProcess > 0 && len(repos) > r.ReposToProcess {
			repos = repos[:r.ReposToProcess]
		}
		for _, repo := range repos {
			subjects = append(subjects, repo.FullName)
		}
	}

	if len(subjects) == 0 {
		result.Subjects = []SubjectResult{}
		return result, nil
	}

	e.Logger.Info(ctx, "Tổng số repo cần phân tích: %d", len(subjects))

	// Worker pool ở mức subject; thứ tự output theo thứ tự subject, không theo thứ tự hoàn thành
	sem := make(chan struct{}, r.MaxWorkers)
	var wg sync.WaitGroup
	out := make([]SubjectResult, len(subjects))
	for i, subject := range subjects {
		wg.Add(1)
		go func(i int, subject string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i] = e.processSubject(ctx, seedUser, subject)
		}(i, subject)
	}
	wg.Wait()

	result.Subjects = out
	return result, nil
}

func (e *Engine) processSubject(ctx context.Context, seedUser, subject string) SubjectResult {
	r := e.Config.Recommender
	res := SubjectResult{Repo: subject, Recommendations: []Entry{}}
	th := Thresholds{
		MinCooccurrence: r.MinCooccurrence,
		MinStargazers:   r.MinStargazers,
		MinForkers:      r.MinForkers,
		MinRatio:        r.MinRatio,
	}

	if ctx.Err() != nil {
		res.Err = ctx.Err().Error()
		return res
	}

	// Nguồn có khả năng gộp sẵn thì một câu query duy nhất thay cho cả vòng fetch neighbor
	if oq, ok := e.Source.(OverlapQuerier); ok {
		candidates, err := oq.OverlapCandidates(ctx, subject)
		if err != nil {
			e.Logger.Error(ctx, "Subject %s thất bại: %v", subject, err)
			res.Err = err.Error()
			return res
		}
		res.CandidatesFound = len(candidates)
		res.Recommendations = Select(candidates, th, r.Kind, r.OrderBy, r.TopN)
		e.Logger.Info(ctx, "Đã xử lý %s -> %d khuyến nghị", subject, len(res.Recommendations))
		return res
	}

	logins, err := e.repoStargazers(ctx, subject, r.StargazersPerRepo)
	if err != nil {
		e.Logger.Warn(ctx, "Không lấy được stargazers cho %s: %v", subject, err)
		res.Err = err.Error()
		return res
	}

	// Giới hạn cứng: max_neighbors là cỡ mẫu, 0 nghĩa là không sample neighbor nào
	neighbors := make([]string, 0, len(logins))
	for _, login := range logins {
		if len(neighbors) >= r.MaxNeighbors {
			break
		}
		if login == "" || login == seedUser {
			continue
		}
		neighbors = append(neighbors, login)
	}
	res.NeighborsSampled = len(neighbors)

	agg := NewAggregator(subject, r.MaxNeighbors)

	type fetchResult struct {
		login string
		edges []Interaction
		err   error
	}

	for start := 0; start < len(neighbors); start += neighborFetchChunk {
		end := start + neighborFetchChunk
		if end > len(neighbors) {
			end = len(neighbors)
		}
		batch := neighbors[start:end]

		results := make([]fetchResult, len(batch))
		var batchWg sync.WaitGroup
		for i, login := range batch {
			batchWg.Add(1)
			go func(i int, login string) {
				defer batchWg.Done()
				repos, errFetch := e.userStars(ctx, login, r.StarsPerNeighbor)
				if errFetch != nil {
					results[i] = fetchResult{login: login, err: errFetch}
					return
				}
				edges := make([]Interaction, 0, len(repos))
				for idx := range repos {
					repo := repos[idx]
					edges = append(edges, Interaction{Repo: repo.FullName, Kind: Star, Meta: &repo})
				}
				results[i] = fetchResult{login: login, edges: edges}
			}(i, login)
		}
		batchWg.Wait()

		// Cộng dồn tuần tự theo thứ tự input để thứ tự phát hiện, và do đó
		// tie-break của selector, lặp lại được giữa các lần chạy
		stopped := false
		for _, fr := range results {
			if fr.err != nil {
				e.Logger.Warn(ctx, "Bỏ qua neighbor %s: %v", fr.login, fr.err)
				continue
			}
			if len(fr.edges) == 0 {
				// 404 hoặc user không có public data: không phải lỗi, chỉ là omission
				continue
			}
			if !agg.Accumulate(fr.login, fr.edges) {
				stopped = true
				break
			}
			res.NeighborsWithData++
		}
		if stopped || ctx.Err() != nil {
			break
		}
	}

	if ctx.Err() != nil {
		// Run bị hủy giữa chừng: không trả về kết quả gộp dở dang cho subject này
		res.Err = ctx.Err().Error()
		res.Recommendations = []Entry{}
		res.CandidatesFound = 0
		return res
	}

	candidates := agg.Candidates()
	res.CandidatesFound = len(candidates)
	res.Recommendations = Select(candidates, th, r.Kind, r.OrderBy, r.TopN)
	e.Logger.Info(ctx, "Đã xử lý %s -> %d khuyến nghị", subject, len(res.Recommendations))
	return res
}

// userStars đọc qua cache: hit thì bỏ qua hoàn toàn nguồn cho identifier này
func (e *Engine) userStars(ctx context.Context, login string, limit int) ([]Repo, error) {
	if e.userCache != nil {
		if data, ok, errGet := e.userCache.Get(login); errGet == nil && ok {
			var repos []Repo
			if errDecode := json.Unmarshal(data, &repos); errDecode == nil {
				e.Logger.Debug(ctx, "[Cache] Dùng stars đã cache cho %s", login)
				return repos, nil
			}
			// Entry hỏng thì bỏ qua và fetch lại
		}
	}

	repos, err := e.Source.UserStars(ctx, login, limit)
	if err != nil {
		if len(repos) == 0 {
			return nil, err
		}
		// Có dữ liệu một phần: dùng được nhưng không cache để lần sau fetch lại đầy đủ
		return repos, nil
	}

	if e.userCache != nil {
		if data, errEnc := json.Marshal(repos); errEnc == nil {
			if errPut := e.userCache.Put(login, data); errPut != nil {
				e.Logger.Warn(ctx, "Không ghi được cache stars cho %s: %v", login, errPut)
			}
		}
	}

	return repos, nil
}

// repoStargazers đọc qua cache giống userStars, key là owner/name đã chuẩn hóa
func (e *Engine) repoStargazers(ctx context.Context, fullName string, limit int) ([]string, error) {
	if e.stargazerCache != nil {
		if data, ok, errGet := e.stargazerCache.Get(fullName); errGet == nil && ok {
			var logins []string
			if errDecode := json.Unmarshal(data, &logins); errDecode == nil {
				e.Logger.Debug(ctx, "[Cache] Dùng stargazers đã cache cho %s", fullName)
				return logins, nil
			}
		}
	}

	logins, err := e.Source.RepoStargazers(ctx, fullName, limit)
	if err != nil {
		if len(logins) == 0 {
			return nil, err
		}
		return logins, nil
	}

	if e.stargazerCache != nil {
		if data, errEnc := json.Marshal(logins); errEnc == nil {
			if errPut := e.stargazerCache.Put(fullName, data); errPut != nil {
				e.Logger.Warn(ctx, "Không ghi được cache stargazers cho %s: %v", fullName, errPut)
			}
		}
	}

	return logins, nil
}
