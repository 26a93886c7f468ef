// Gói snapshot ghi kết quả run ra đĩa dưới dạng JSON:
// một file latest.json, một snapshot theo timestamp và một file chi tiết cho mỗi subject.

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thep200/github-recommender/internal/cache"
	"github.com/thep200/github-recommender/internal/recommender"
	"github.com/thep200/github-recommender/pkg/log"
)

type Writer struct {
	Logger log.Logger
	dir    string
}

func NewWriter(logger log.Logger, dir string) (*Writer, error) {
	if dir == "" {
		dir = "data"
	}
	return &Writer{Logger: logger, dir: dir}, nil
}

func (w *Writer) recommendationsDir() string {
	return filepath.Join(w.dir, "recommendations")
}

func (w *Writer) perRepoDir() string {
	return filepath.Join(w.dir, "repo")
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

// WriteResult ghi latest.json và một snapshot theo timestamp cho cả run
func (w *Writer) WriteResult(ctx context.Context, result *recommender.Result) error {
	dir := w.recommendationsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir %s: %w", dir, err)
	}

	stamp := result.GeneratedAt.UTC().Format("20060102-150405")
	snapshotPath := filepath.Join(dir, fmt.Sprintf("recommendations-%s.json", stamp))
	latestPath := filepath.Join(dir, "latest.json")

	if err := writeJSON(snapshotPath, result); err != nil {
		return err
	}
	if err := writeJSON(latestPath, result); err != nil {
		return err
	}

	w.Logger.Info(ctx, "Đã ghi %s và %s", latestPath, snapshotPath)
	return nil
}

type subjectFile struct {
	Repo        string                    `json:"repo"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Result      recommender.SubjectResult `json:"result"`
}

// WriteSubject ghi file chi tiết cho một subject, tên file là identifier đã chuẩn hóa
func (w *Writer) WriteSubject(ctx context.Context, generatedAt time.Time, subject recommender.SubjectResult) error {
	dir := w.perRepoDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, cache.SafeKey(subject.Repo)+".json")
	return writeJSON(path, subjectFile{
		Repo:        subject.Repo,
		GeneratedAt: generatedAt,
		Result:      subject,
	})
}
