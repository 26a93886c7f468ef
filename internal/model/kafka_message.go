package model

import "time"

// RecommendationMessage là cấu trúc dữ liệu khuyến nghị gửi tới Kafka
type RecommendationMessage struct {
	SeedRepo      string    `json:"seed_repo"`
	CandidateRepo string    `json:"candidate_repo"`
	Stargazers    int       `json:"stargazers"`
	Forkers       int       `json:"forkers"`
	Ratio         *float64  `json:"ratio,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}
