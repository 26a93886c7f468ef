package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeKey(t *testing.T) {
	assert.Equal(t, "octocat", SafeKey("octocat"))
	assert.Equal(t, "org__repo-a", SafeKey("org/repo-a"))
	assert.Equal(t, "a__b__c", SafeKey("a/b/c"))
}

func TestStoreRoundtrip(t *testing.T) {
	store, err := NewStore(t.TempDir(), 16)
	require.NoError(t, err)

	_, ok, err := store.Get("octocat")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put("octocat", []byte(`["org/repo-a"]`)))

	data, ok, err := store.Get("octocat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["org/repo-a"]`, string(data))
}

func TestStoreRepoKeyOnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 16)
	require.NoError(t, err)

	require.NoError(t, store.Put("org/repo-a", []byte(`["u1"]`)))

	// Identifier chứa "/" không được tạo thư mục con
	_, err = os.Stat(filepath.Join(dir, "org__repo-a.json"))
	require.NoError(t, err)
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir, 16)
	require.NoError(t, err)
	require.NoError(t, first.Put("octocat", []byte(`["org/repo-a"]`)))

	// Store mới trên cùng thư mục đọc được entry cũ: cache sống giữa các run
	second, err := NewStore(dir, 16)
	require.NoError(t, err)
	data, ok, err := second.Get("octocat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["org/repo-a"]`, string(data))
}

func TestStoreMemoryEvictionFallsBackToDisk(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1)
	require.NoError(t, err)

	require.NoError(t, store.Put("u1", []byte("1")))
	require.NoError(t, store.Put("u2", []byte("2")))

	// u1 đã bị đẩy khỏi memory nhưng vẫn còn trên disk
	data, ok, err := store.Get("u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(data))
}

func TestStoreConcurrentDistinctKeys(t *testing.T) {
	store, err := NewStore(t.TempDir(), 64)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("user-%d", i)
			assert.NoError(t, store.Put(key, []byte(key)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 32; i++ {
		key := fmt.Sprintf("user-%d", i)
		data, ok, err := store.Get(key)
		require.NoError(t, err)
		require.True(t, ok, key)
		assert.Equal(t, key, string(data))
	}
}
