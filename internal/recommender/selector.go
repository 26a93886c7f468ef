package recommender

import (
	"sort"

	"github.com/thep200/github-recommender/cfg"
)

// Thresholds là các ngưỡng lọc, mỗi ngưỡng độc lập và được áp dụng đồng thời (AND)
type Thresholds struct {
	MinCooccurrence int
	MinStargazers   int
	MinForkers      int
	MinRatio        float64
}

func primaryCount(c Candidate, kind string) int {
	if kind == cfg.KindForks {
		return c.Forkers
	}
	return c.Stargazers
}

func rankValue(c Candidate, orderBy string) float64 {
	switch orderBy {
	case cfg.OrderByForkers:
		return float64(c.Forkers)
	case cfg.OrderByRatio:
		if !c.HasRatio {
			return -1
		}
		return c.Ratio
	default:
		return float64(c.Stargazers)
	}
}

// Select lọc theo ngưỡng, sắp xếp theo khóa xếp hạng giảm dần rồi cắt về top-N.
// Sort phải stable: khi bằng điểm, thứ tự phát hiện được giữ nguyên để kết quả
// lặp lại được giữa các lần chạy. Cắt top-N thực hiện sau khi lọc, không phải trước.
func Select(candidates []Candidate, th Thresholds, kind string, orderBy string, topN int) []Entry {
	minCooccurrence := th.MinCooccurrence
	if minCooccurrence < 1 {
		minCooccurrence = 1
	}

	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if primaryCount(c, kind) < minCooccurrence {
			continue
		}
		if th.MinStargazers > 0 && c.Stargazers < th.MinStargazers {
			continue
		}
		if th.MinForkers > 0 && c.Forkers < th.MinForkers {
			continue
		}
		if th.MinRatio > 0 && (!c.HasRatio || c.Ratio < th.MinRatio) {
			continue
		}
		filtered = append(filtered, c)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return rankValue(filtered[i], orderBy) > rankValue(filtered[j], orderBy)
	})

	if topN > 0 && len(filtered) > topN {
		filtered = filtered[:topN]
	}

	entries := make([]Entry, 0, len(filtered))
	for _, c := range filtered {
		entry := Entry{
			Repo:       c.Repo,
			Count:      primaryCount(c, kind),
			Stargazers: c.Stargazers,
			Forkers:    c.Forkers,
			Meta:       c.Meta,
		}
		if c.HasRatio {
			ratio := c.Ratio
			entry.Ratio = &ratio
		}
		entries = append(entries, entry)
	}

	return entries
}
