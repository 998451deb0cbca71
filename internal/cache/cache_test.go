package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type memDiskStore struct {
	data map[string][]byte
}

func newMemDiskStore() *memDiskStore { return &memDiskStore{data: map[string][]byte{}} }

func (m *memDiskStore) Get(key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}
func (m *memDiskStore) Put(key string, value []byte) error { m.data[key] = value; return nil }
func (m *memDiskStore) Delete(key string) error             { delete(m.data, key); return nil }
func (m *memDiskStore) Count() (int, error)                  { return len(m.data), nil }
func (m *memDiskStore) Close() error                         { return nil }

func TestGetPutRoundTrip(t *testing.T) {
	c := New(1024, nil)
	c.Put("a", []byte("hello"))
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, "hello", string(v))
}

func TestMemoryBudgetNeverExceeded(t *testing.T) {
	c := New(16, nil)
	for i := 0; i < 100; i++ {
		c.Put(string(rune('a'+i%26)), []byte("01234567"))
		stats := c.Stats()
		require.LessOrEqual(t, stats.MemoryBytes, stats.MemoryLimitBytes)
		require.GreaterOrEqual(t, stats.MemoryEntries, 0)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(16, nil)
	c.Put("a", []byte("12345678")) // 8 bytes
	c.Put("b", []byte("12345678")) // 8 bytes, now full (16/16)
	// touch "a" so it's more recently used than "b"
	_, _ = c.Get("a")
	c.Put("c", []byte("12345678")) // forces eviction of "b"

	_, aOK := c.Get("a")
	_, bOK := c.Get("b")
	_, cOK := c.Get("c")
	require.True(t, aOK)
	require.False(t, bOK)
	require.True(t, cOK)
}

func TestDiskFallbackRepopulatesMemory(t *testing.T) {
	disk := newMemDiskStore()
	c := New(1024, disk)
	c.Put("k", []byte("v"))

	// simulate memory eviction without touching disk
	c.Remove("k")
	_ = disk.Put("k", []byte("v"))

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", string(v))

	stats := c.Stats()
	require.Equal(t, 1, stats.MemoryEntries)
}

func TestRemoveDeletesFromBothTiers(t *testing.T) {
	disk := newMemDiskStore()
	c := New(1024, disk)
	c.Put("k", []byte("v"))
	c.Remove("k")

	_, ok := c.Get("k")
	require.False(t, ok)
	_, diskOK, _ := disk.Get("k")
	require.False(t, diskOK)
}
