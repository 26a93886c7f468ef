// Gói source cung cấp hai biến thể edge source cho engine:
// crawler trực tiếp trên GitHub REST API và query gộp trên event warehouse.

package source

import (
	"context"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/internal/githubapi"
	"github.com/thep200/github-recommender/internal/recommender"
	"github.com/thep200/github-recommender/pkg/log"
)

// Ngưỡng lọc repo rác khi crawl trực tiếp: fork ít sao và repo quá nhỏ bị bỏ qua
const (
	minForkStars = 50
	minRepoStars = 5
)

type Live struct {
	Logger log.Logger
	Config *cfg.Config
	caller *githubapi.Caller
}

func NewLive(logger log.Logger, config *cfg.Config) (*Live, error) {
	l := &Live{
		Logger: logger,
		Config: config,
		caller: githubapi.NewCaller(logger, config),
	}

	// REST API chỉ cho thấy cạnh star (starred/stargazers listings).
	// Yêu cầu đếm fork cần backend warehouse.
	if config.Recommender.Kind != cfg.KindStars {
		logger.Notice(context.Background(), "Backend live chỉ quan sát được cạnh star, kind=%q sẽ được tính trên stars", config.Recommender.Kind)
	}

	return l, nil
}

func keepRepo(repo githubapi.RepoSummary) bool {
	if repo.FullName == "" {
		return false
	}
	if repo.Fork && repo.StargazersCount < minForkStars {
		return false
	}
	return repo.StargazersCount >= minRepoStars
}

// UserStars trả về các repo user đã star, đã lọc rác, tối đa limit phần tử
func (l *Live) UserStars(ctx context.Context, login string, limit int) ([]recommender.Repo, error) {
	raw, err := l.caller.UserStarred(ctx, login, 0)
	if err != nil && len(raw) == 0 {
		return nil, err
	}

	repos := make([]recommender.Repo, 0, len(raw))
	for _, item := range raw {
		if !keepRepo(item) {
			continue
		}
		repos = append(repos, recommender.Repo{
			FullName:        item.FullName,
			HtmlUrl:         item.HtmlUrl,
			Language:        item.Language,
			Description:     item.Description,
			StargazersCount: item.StargazersCount,
			ForksCount:      item.ForksCount,
		})
		if limit > 0 && len(repos) >= limit {
			break
		}
	}

	return repos, err
}

// RepoStargazers trả về login các actor đã star repo, tối đa limit phần tử
func (l *Live) RepoStargazers(ctx context.Context, fullName string, limit int) ([]string, error) {
	raw, err := l.caller.RepoStargazers(ctx, fullName, limit)
	if err != nil && len(raw) == 0 {
		return nil, err
	}

	logins := make([]string, 0, len(raw))
	for _, sg := range raw {
		if sg.Login == "" {
			continue
		}
		logins = append(logins, sg.Login)
	}

	return logins, err
}
