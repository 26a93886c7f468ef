package ui

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/internal/model"
	"github.com/thep200/github-recommender/pkg/db"
	"github.com/thep200/github-recommender/pkg/log"
	"gorm.io/gorm"
)

type Handler struct {
	Logger log.Logger
	Config *cfg.Config
	db     *gorm.DB
}

func NewHandler(logger log.Logger, config *cfg.Config, mysql *db.Mysql) (*Handler, error) {
	gormDB, err := mysql.Db()
	if err != nil {
		return nil, err
	}
	return &Handler{
		Logger: logger,
		Config: config,
		db:     gormDB,
	}, nil
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/recommendations", h.getRecommendations)
	mux.HandleFunc("/api/health", h.getHealth)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

//
type recommendationRow struct {
	SeedRepo      string   `json:"seedRepo"`
	CandidateRepo string   `json:"candidateRepo"`
	Stargazers    int      `json:"stargazers"`
	Forkers       int      `json:"forkers"`
	Ratio         *float64 `json:"ratio,omitempty"`
	GeneratedAt   string   `json:"generatedAt"`
}

//
func (h *Handler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	// Parse query parameters
	pageStr := r.URL.Query().Get("page")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		page = 1
	}

	pageSizeStr := r.URL.Query().Get("pageSize")
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	//
	seed := r.URL.Query().Get("seed")
	search := r.URL.Query().Get("search")
	offset := (page - 1) * pageSize
	query := h.db.Model(&model.Recommendation{}).Order("stargazers DESC")

	if seed != "" {
		query = query.Where("seed_repo = ?", seed)
	}
	if search != "" {
		search = "%" + search + "%"
		query = query.Where("candidate_repo LIKE ?", search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		h.Logger.Error(r.Context(), "Failed to count recommendations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}

	var recs []model.Recommendation
	if err := query.Offset(offset).Limit(pageSize).Find(&recs).Error; err != nil {
		h.Logger.Error(r.Context(), "Failed to query recommendations: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
		return
	}

	rows := make([]recommendationRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, recommendationRow{
			SeedRepo:      rec.SeedRepo,
			CandidateRepo: rec.CandidateRepo,
			Stargazers:    rec.Stargazers,
			Forkers:       rec.Forkers,
			Ratio:         rec.Ratio,
			GeneratedAt:   rec.GeneratedAt.Format("2006-01-02 15:04:05"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"page":     page,
		"pageSize": pageSize,
		"total":    total,
		"items":    rows,
	})
}

//
func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
