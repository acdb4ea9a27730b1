package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpblast/internal/config"
	"mcpblast/internal/stats"
)

func sampleRun() (*config.Config, *stats.Summary) {
	cfg := &config.Config{
		Server: config.ServerConfig{Transport: config.TransportSSE, Host: "localhost"},
		Test:   config.TestConfig{ToolName: "echo", ConcurrentRequests: 2, DurationSeconds: 5},
	}
	s := stats.New()
	s.RecordSuccess(50 * time.Millisecond)
	return cfg, s.Summarize()
}

func TestAppendAndGet(t *testing.T) {
	store := newStoreAt(filepath.Join(t.TempDir(), "history.json"))

	cfg, sum := sampleRun()
	item, err := store.Append(cfg, sum)
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)

	got := store.Get(item.ID)
	require.NotNil(t, got)
	assert.Equal(t, uint64(1), got.Summary.Successes)
	assert.Equal(t, "echo", got.Config.Test.ToolName)

	assert.Nil(t, store.Get("nope"))
}

func TestHistoryPersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	store := newStoreAt(path)
	cfg, sum := sampleRun()
	_, err := store.Append(cfg, sum)
	require.NoError(t, err)

	reloaded := newStoreAt(path)
	items := reloaded.List()
	require.Len(t, items, 1)
	assert.Equal(t, "echo", items[0].Config.Test.ToolName)
}

func TestNewestFirstAndCapped(t *testing.T) {
	store := newStoreAt(filepath.Join(t.TempDir(), "history.json"))

	cfg, sum := sampleRun()
	var lastID string
	for i := 0; i < maxItems+5; i++ {
		item, err := store.Append(cfg, sum)
		require.NoError(t, err)
		lastID = item.ID
	}

	items := store.List()
	assert.Len(t, items, maxItems)
	assert.Equal(t, lastID, items[0].ID, "newest entry first")
}
