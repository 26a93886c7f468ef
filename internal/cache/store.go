// Gói cache lưu snapshot edge data theo từng identifier (user login hoặc owner/name).
// Cache hit bỏ qua hoàn toàn việc fetch từ nguồn trong phần còn lại của run và giữa các run.

package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SafeKey chuyển identifier thành tên file an toàn.
// Phép thay thế phải reversible và không va chạm: "/" không xuất hiện
// trong login hay tên repo ngoài vai trò phân tách owner/name.
func SafeKey(id string) string {
	return strings.ReplaceAll(id, "/", "__")
}

type Store struct {
	dir string
	mem *lru.Cache[string, []byte]
	mu  sync.Mutex
}

func NewStore(dir string, memoryEntries int) (*Store, error) {
	if memoryEntries < 1 {
		memoryEntries = 256
	}

	mem, err := lru.New[string, []byte](memoryEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}

	return &Store{dir: dir, mem: mem}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, SafeKey(id)+".json")
}

// Get trả về snapshot đã lưu cho identifier, nếu có
func (s *Store) Get(id string) ([]byte, bool, error) {
	if data, ok := s.mem.Get(id); ok {
		return data, true, nil
	}

	s.mu.Lock()
	data, err := os.ReadFile(s.path(id))
	s.mu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache entry %s: %w", id, err)
	}

	s.mem.Add(id, data)
	return data, true, nil
}

// Put ghi snapshot cho identifier. Mỗi identifier chỉ được fetch một lần mỗi run
// nên không có hai writer đồng thời cho cùng một key; khóa ở đây bảo vệ store.
func (s *Store) Put(id string, data []byte) error {
	s.mu.Lock()
	err := os.WriteFile(s.path(id), data, 0o644)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", id, err)
	}

	s.mem.Add(id, data)
	return nil
}
