// Query builder cho bảng event log.
// Đây là nơi duy nhất SQL gặp input bên ngoài: mọi identifier đi qua Literal.

package warehouse

import (
	"fmt"
	"strings"

	"github.com/thep200/github-recommender/cfg"
)

// Literal escape một giá trị string thành SQL literal an toàn.
// Backslash phải được escape trước, sau đó tới nháy đơn.
func Literal(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "'" + escaped + "'"
}

type QueryBuilder struct {
	Table string
}

func NewQueryBuilder(table string) *QueryBuilder {
	return &QueryBuilder{Table: table}
}

// UserStars xây query lấy các repo mà user đã star, mới nhất trước
func (q *QueryBuilder) UserStars(login string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `SELECT
    repo_name,
    max(created_at) AS last_starred
FROM %s
WHERE event_type = 'WatchEvent'
  AND actor_login = %s
GROUP BY repo_name
ORDER BY last_starred DESC`, q.Table, Literal(login))
	if limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %d", limit)
	}
	return b.String()
}

// RepoStargazers xây query lấy các actor đã star một repo, mới nhất trước
func (q *QueryBuilder) RepoStargazers(fullName string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `SELECT
    actor_login,
    max(created_at) AS last_starred
FROM %s
WHERE event_type = 'WatchEvent'
  AND repo_name = %s
GROUP BY actor_login
ORDER BY last_starred DESC`, q.Table, Literal(fullName))
	if limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %d", limit)
	}
	return b.String()
}

type OverlapOptions struct {
	Repo              string
	Kind              string
	StargazersPerRepo int
	StarsPerNeighbor  int
	MinCooccurrence   int
	MinStargazers     int
	MinForkers        int
	MinRatio          float64
	OrderBy           string
	Limit             int
}

func neighborEventFilter(kind string) string {
	switch kind {
	case cfg.KindForks:
		return "('ForkEvent')"
	case cfg.KindBoth:
		return "('WatchEvent', 'ForkEvent')"
	default:
		return "('WatchEvent')"
	}
}

// primaryMetric là cột dùng làm co-occurrence count theo loại tương tác
func primaryMetric(kind string) string {
	if kind == cfg.KindForks {
		return "forkers"
	}
	return "stargazers"
}

func orderColumn(orderBy string) string {
	switch orderBy {
	case cfg.OrderByForkers:
		return "forkers"
	case cfg.OrderByRatio:
		return "ratio"
	default:
		return "stargazers"
	}
}

// Overlap xây câu query gộp cho một subject repo: chọn các stargazer của repo
// (giới hạn theo độ mới bằng window rank), join lại với event log để lấy các repo
// khác mà họ tương tác, rồi group và lọc theo ngưỡng cấu hình.
//
// Thứ tự các hàng bằng điểm do nguồn quyết định (natural row order),
// đây là nondeterminism được chấp nhận và không được "sửa" giữa các lần chạy.
func (q *QueryBuilder) Overlap(opts OverlapOptions) string {
	repoLiteral := Literal(opts.Repo)

	watchersLimitClause := ""
	if opts.StargazersPerRepo > 0 {
		watchersLimitClause = fmt.Sprintf("  AND rn_repo <= %d\n", opts.StargazersPerRepo)
	}

	neighborLimitClause := ""
	if opts.StarsPerNeighbor > 0 {
		neighborLimitClause = fmt.Sprintf("    WHERE rn_neighbor <= %d\n", opts.StarsPerNeighbor)
	}

	minCooccurrence := opts.MinCooccurrence
	if minCooccurrence < 1 {
		minCooccurrence = 1
	}
	havingParts := []string{fmt.Sprintf("%s >= %d", primaryMetric(opts.Kind), minCooccurrence)}
	if opts.MinStargazers > 0 {
		havingParts = append(havingParts, fmt.Sprintf("stargazers >= %d", opts.MinStargazers))
	}
	if opts.MinForkers > 0 {
		havingParts = append(havingParts, fmt.Sprintf("forkers >= %d", opts.MinForkers))
	}
	if opts.MinRatio > 0 {
		havingParts = append(havingParts, fmt.Sprintf("ratio >= %v", opts.MinRatio))
	}
	havingClause := strings.Join(havingParts, " AND ")

	limitClause := ""
	if opts.Limit > 0 {
		limitClause = fmt.Sprintf("LIMIT %d", opts.Limit)
	}

	return fmt.Sprintf(`WITH source AS (
    SELECT actor_login
    FROM (
        SELECT
            actor_login,
            row_number() OVER (PARTITION BY actor_login ORDER BY created_at DESC) AS rn_actor,
            row_number() OVER (ORDER BY created_at DESC) AS rn_repo
        FROM %s
        WHERE event_type = 'WatchEvent'
          AND repo_name = %s
    )
    WHERE rn_actor = 1
%s    GROUP BY actor_login
),
neighbor_events AS (
    SELECT
        e.repo_name AS neighbor_repo,
        e.event_type,
        e.actor_login,
        row_number() OVER (
            PARTITION BY e.actor_login
            ORDER BY e.created_at DESC
        ) AS rn_neighbor
    FROM %s e
    INNER JOIN source s ON e.actor_login = s.actor_login
    WHERE e.event_type IN %s
      AND e.repo_name != %s
),
filtered_neighbors AS (
    SELECT neighbor_repo, event_type, actor_login, rn_neighbor
    FROM neighbor_events
%s)
SELECT
    neighbor_repo,
    count(DISTINCT IF(event_type = 'WatchEvent', actor_login, NULL)) AS stargazers,
    count(DISTINCT IF(event_type = 'ForkEvent', actor_login, NULL)) AS forkers,
    round(IF(forkers = 0, NULL, stargazers / forkers), 2) AS ratio
FROM filtered_neighbors
GROUP BY neighbor_repo
HAVING %s
ORDER BY %s DESC
%s`, q.Table, repoLiteral, watchersLimitClause, q.Table, neighborEventFilter(opts.Kind), repoLiteral, neighborLimitClause, havingClause, orderColumn(opts.OrderBy), limitClause)
}
