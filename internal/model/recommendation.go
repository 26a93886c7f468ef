package model

import (
	"fmt"
	"time"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/pkg/db"
	"github.com/thep200/github-recommender/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Recommendation struct {
	Model
	SeedRepo      string    `json:"seed_repo" gorm:"column:seed_repo;type:varchar(255);not null;uniqueIndex:idx_seed_candidate"`
	CandidateRepo string    `json:"candidate_repo" gorm:"column:candidate_repo;type:varchar(255);not null;uniqueIndex:idx_seed_candidate"`
	Stargazers    int       `json:"stargazers" gorm:"column:stargazers;default:0"`
	Forkers       int       `json:"forkers" gorm:"column:forkers;default:0"`
	Ratio         *float64  `json:"ratio" gorm:"column:ratio"`
	GeneratedAt   time.Time `json:"generated_at" gorm:"column:generated_at"`
}

func NewRecommendation(config *cfg.Config, logger log.Logger, mysql *db.Mysql) (*Recommendation, error) {
	return &Recommendation{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  mysql,
		},
	}, nil
}

func (r *Recommendation) TableName() string {
	return "recommendations"
}

// CreateBatch upsert một loạt khuyến nghị trong một transaction
func (r *Recommendation) CreateBatch(messages []RecommendationMessage) error {
	db, err := r.Mysql.Db()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}

	recs := make([]Recommendation, 0, len(messages))
	now := time.Now()

	for _, msg := range messages {
		rec := Recommendation{
			SeedRepo:      msg.SeedRepo,
			CandidateRepo: msg.CandidateRepo,
			Stargazers:    msg.Stargazers,
			Forkers:       msg.Forkers,
			Ratio:         msg.Ratio,
			GeneratedAt:   msg.GeneratedAt,
		}
		rec.CreatedAt = now
		rec.UpdatedAt = now
		recs = append(recs, rec)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seed_repo"}, {Name: "candidate_repo"}},
			DoUpdates: clause.AssignmentColumns([]string{"stargazers", "forkers", "ratio", "generated_at", "updated_at"}),
		}).CreateInBatches(recs, 100)

		if result.Error != nil {
			return fmt.Errorf("failed to batch create recommendations: %w", result.Error)
		}

		return nil
	})
}
