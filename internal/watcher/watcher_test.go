package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(99), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFilters(t *testing.T) {
	tmpl := ExtensionFilter(".tpl", ".html")
	assert.True(t, tmpl("pages/index.html"))
	assert.True(t, tmpl("mail.TPL"))
	assert.False(t, tmpl("values.yml"))

	assert.True(t, NoHiddenFilter("dir/page.html"))
	assert.False(t, NoHiddenFilter("dir/.page.html.swx"))

	assert.True(t, NoBackupFilter("page.html"))
	assert.False(t, NoBackupFilter("page.html~"))
	assert.False(t, NoBackupFilter("page.html.swp"))
	assert.False(t, NoBackupFilter("values.yml.bak"))
}

func TestDebouncer_GroupsAndDeduplicates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDebouncer(20 * time.Millisecond)
	go d.start(ctx)

	d.Add(ChangeEvent{Type: EventTypeCreated, Path: "a.tpl"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "b.yml"})
	d.Add(ChangeEvent{Type: EventTypeModified, Path: "a.tpl"})

	select {
	case events := <-d.Output():
		require.Len(t, events, 2)
		assert.Equal(t, "a.tpl", events[0].Path)
		assert.Equal(t, EventTypeModified, events[0].Type, "latest event for a path wins")
		assert.Equal(t, "b.yml", events[1].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced events")
	}
}

func TestNewFileWatcher(t *testing.T) {
	fw, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	assert.NotNil(t, fw.watcher)
	assert.NotNil(t, fw.debouncer)
	assert.Empty(t, fw.filters)
	assert.Empty(t, fw.handlers)

	fw.AddFilter(NoHiddenFilter)
	fw.AddHandler(func(context.Context, []ChangeEvent) error { return nil })
	assert.Len(t, fw.filters, 1)
	assert.Len(t, fw.handlers, 1)

	// Stop is idempotent
	require.NoError(t, fw.Stop())
	require.NoError(t, fw.Stop())
}

func TestFileWatcher_AddPathErrors(t *testing.T) {
	fw, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	assert.Error(t, fw.AddPath(""))
	assert.Error(t, fw.AddPath(filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, fw.WatchFiles("  "))
}

func TestFileWatcher_WatchFiles(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "page.tpl")
	other := filepath.Join(dir, "unrelated.txt")
	require.NoError(t, os.WriteFile(template, []byte("v1"), 0o600))

	fw, err := NewFileWatcher(30*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()

	var mu sync.Mutex
	var seen []string
	got := make(chan struct{}, 10)
	fw.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		mu.Lock()
		for _, e := range events {
			seen = append(seen, e.Path)
		}
		mu.Unlock()
		got <- struct{}{}
		return nil
	})
	require.NoError(t, fw.WatchFiles(template))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fw.Start(ctx)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o600))
	require.NoError(t, os.WriteFile(template, []byte("v2"), 0o600))

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change handler")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	for _, path := range seen {
		assert.Equal(t, template, path)
	}
}
