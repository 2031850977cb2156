package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func startWatcher(t *testing.T, path string, current map[string]any, logger *zap.Logger) <-chan map[string]any {
	t.Helper()
	changes := make(chan map[string]any, 4)
	w, err := NewWatcher(path, current, WatcherOptions{
		Debounce: 50 * time.Millisecond,
		Logger:   logger,
		OnChange: func(changed map[string]any) { changes <- changed },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, w.Close())
	})
	return changes
}

func TestWatcherReportsChangedEntries(t *testing.T) {
	path := writeFile(t, "uniforms.yaml", "a: 1\nb: 2\n")
	current, err := LoadUniforms(path)
	require.NoError(t, err)
	changes := startWatcher(t, path, current, nil)

	require.NoError(t, os.WriteFile(path, []byte("a: 1\nb: 3\nc: webcam\n"), 0o644))

	select {
	case changed := <-changes:
		assert.Equal(t, map[string]any{"b": 3, "c": "webcam"}, changed)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherSkipsBrokenFile(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	path := writeFile(t, "uniforms.json", `{"a": 1}`)
	changes := startWatcher(t, path, map[string]any{"a": 1.0}, zap.New(core))

	require.NoError(t, os.WriteFile(path, []byte(`{"a": `), 0o644))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("Failed to reload uniforms").Len() > 0
	}, 3*time.Second, 10*time.Millisecond)

	select {
	case changed := <-changes:
		t.Fatalf("unexpected change %v", changed)
	default:
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	path := writeFile(t, "uniforms.yaml", "a: 1\n")
	changes := startWatcher(t, path, map[string]any{"a": 1}, nil)

	other := path + ".bak"
	require.NoError(t, os.WriteFile(other, []byte("a: 2\n"), 0o644))

	select {
	case changed := <-changes:
		t.Fatalf("unexpected change %v", changed)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCloseWithoutStart(t *testing.T) {
	w, err := NewWatcher(writeFile(t, "u.yaml", ""), nil, WatcherOptions{})
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
