package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCategoryLog(t *testing.T, dir string, cat Category) string {
	t.Helper()
	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, date+"_"+string(cat)+".log"))
	require.NoError(t, err)
	return string(data)
}

func disable(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { _ = Initialize(Config{}) })
}

// TestAllCategoriesLog checks that every category writes its own file in debug mode
func TestAllCategoriesLog(t *testing.T) {
	disable(t)
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{DebugMode: true, Level: "debug", LogsDir: dir}))
	assert.True(t, IsCategoryEnabled(CategoryBoot))

	for _, cat := range AllCategories {
		Get(cat).Info("hello from %s", cat)
	}
	CloseAll()

	for _, cat := range AllCategories {
		content := readCategoryLog(t, dir, cat)
		assert.Contains(t, content, "hello from "+string(cat))
	}
}

func TestDisabledModeWritesNothing(t *testing.T) {
	disable(t)
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{DebugMode: false, LogsDir: dir}))

	Vocab("should not appear")
	Get(CategoryExpand).Error("nor this")
	CloseAll()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCategoryFilter(t *testing.T) {
	disable(t)
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{
		DebugMode:  true,
		LogsDir:    dir,
		Categories: map[string]bool{"watch": false},
	}))

	assert.False(t, IsCategoryEnabled(CategoryWatch))
	assert.True(t, IsCategoryEnabled(CategoryVocab), "unlisted categories default to enabled")

	Watch("filtered")
	Vocab("kept")
	CloseAll()

	_, err := os.Stat(filepath.Join(dir, time.Now().Format("2006-01-02")+"_watch.log"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, readCategoryLog(t, dir, CategoryVocab), "kept")
}

func TestLevelFilter(t *testing.T) {
	disable(t)
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{DebugMode: true, Level: "warn", LogsDir: dir}))

	Get(CategoryStore).Info("quiet info")
	StoreWarn("loud warning")
	CloseAll()

	content := readCategoryLog(t, dir, CategoryStore)
	assert.NotContains(t, content, "quiet info")
	assert.Contains(t, content, "loud warning")
}

func TestJSONFormat(t *testing.T) {
	disable(t)
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{DebugMode: true, JSONFormat: true, LogsDir: dir}))

	WithRequestID(CategoryExpand, "req-42").WithField("passes", 3).Info("expanded")
	CloseAll()

	content := readCategoryLog(t, dir, CategoryExpand)
	assert.Contains(t, content, `"msg":"expanded"`)
	assert.Contains(t, content, `"req":"req-42"`)
	assert.Contains(t, content, `"passes":3`)
}

func TestDebugModeRequiresDir(t *testing.T) {
	disable(t)
	err := Initialize(Config{DebugMode: true})
	assert.Error(t, err)
}

func TestConcurrentGet(t *testing.T) {
	disable(t)
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{DebugMode: true, LogsDir: dir}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			Get(CategoryVocab).Info("line %d", i)
		}(i)
	}
	wg.Wait()
	CloseAll()

	content := readCategoryLog(t, dir, CategoryVocab)
	assert.Equal(t, 20, strings.Count(content, "line "))
}

func TestTimer(t *testing.T) {
	disable(t)
	dir := t.TempDir()
	require.NoError(t, Initialize(Config{DebugMode: true, Level: "debug", LogsDir: dir}))

	timer := StartTimer(CategoryVocab, "Load")
	assert.GreaterOrEqual(t, timer.Stop(), time.Duration(0))
	StartTimer(CategoryVocab, "SlowLoad").StopWithThreshold(-1)
	CloseAll()

	content := readCategoryLog(t, dir, CategoryVocab)
	assert.Contains(t, content, "Load completed in")
	assert.Contains(t, content, "SlowLoad took")
}
