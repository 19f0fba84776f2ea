package xconf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reloadEvent struct {
	name string
	err  error
}

func startWatch(t *testing.T, path string, cb WatchCallback) {
	t.Helper()
	cfg, err := New(path)
	require.NoError(t, err)

	w, err := Watch(cfg, cb, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// 等待 Run 进入事件循环
	time.Sleep(30 * time.Millisecond)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeTemp(t, "app.yaml", "name: one\n")
	events := make(chan reloadEvent, 8)
	startWatch(t, path, func(c Config, err error) {
		events <- reloadEvent{name: c.Client().String("name"), err: err}
	})

	require.NoError(t, os.WriteFile(path, []byte("name: two\n"), 0o600))

	select {
	case ev := <-events:
		require.NoError(t, ev.err)
		assert.Equal(t, "two", ev.name)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到重载回调")
	}
}

func TestWatch_AtomicRenameSave(t *testing.T) {
	path := writeTemp(t, "app.yaml", "name: one\n")
	events := make(chan reloadEvent, 8)
	startWatch(t, path, func(c Config, err error) {
		events <- reloadEvent{name: c.Client().String("name"), err: err}
	})

	// WriteFile 使用临时文件 + rename
	require.NoError(t, WriteFile(path, appConf{Name: "renamed"}))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.err == nil && ev.name == "renamed" {
				return
			}
		case <-deadline:
			t.Fatal("rename 保存未触发重载")
		}
	}
}

func TestWatch_ReloadFailureKeepsOldConfig(t *testing.T) {
	path := writeTemp(t, "app.yaml", "name: one\n")
	events := make(chan reloadEvent, 8)
	startWatch(t, path, func(c Config, err error) {
		events <- reloadEvent{name: c.Client().String("name"), err: err}
	})

	require.NoError(t, os.WriteFile(path, []byte("name: [\n"), 0o600))

	select {
	case ev := <-events:
		assert.ErrorIs(t, ev.err, ErrParseFailed)
		assert.Equal(t, "one", ev.name)
	case <-time.After(2 * time.Second):
		t.Fatal("未收到重载回调")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	path := writeTemp(t, "app.yaml", "name: one\n")
	events := make(chan reloadEvent, 8)
	startWatch(t, path, func(c Config, err error) {
		events <- reloadEvent{err: err}
	})

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1\n"), 0o600))

	select {
	case <-events:
		t.Fatal("无关文件不应触发重载")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_CallbackPanicIsolated(t *testing.T) {
	path := writeTemp(t, "app.yaml", "name: one\n")
	called := make(chan struct{}, 4)
	startWatch(t, path, func(Config, error) {
		called <- struct{}{}
		panic("boom")
	})

	require.NoError(t, os.WriteFile(path, []byte("name: two\n"), 0o600))
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("回调未被调用")
	}
}

func TestWatch_CloseStopsRun(t *testing.T) {
	path := writeTemp(t, "app.yaml", "name: one\n")
	cfg, err := New(path)
	require.NoError(t, err)
	w, err := Watch(cfg, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, w.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close 后 Run 未返回")
	}
	assert.NoError(t, w.Close(), "重复 Close")
}

func TestWatch_CancelStopsRun(t *testing.T) {
	path := writeTemp(t, "app.yaml", "name: one\n")
	cfg, err := New(path)
	require.NoError(t, err)
	w, err := Watch(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx))
	assert.Error(t, w.Run(context.Background()), "只能 Run 一次")
}

func TestWatch_Errors(t *testing.T) {
	fromBytes, err := NewFromBytes([]byte("a: 1\n"), FormatYAML)
	require.NoError(t, err)
	_, err = Watch(fromBytes, nil)
	assert.ErrorIs(t, err, ErrNotReloadable)

	_, err = Watch(fakeConfig{}, nil)
	assert.Error(t, err)
}

func TestWatcher_NotifyWatchError(t *testing.T) {
	path := writeTemp(t, "app.yaml", "name: one\n")
	cfg, err := New(path)
	require.NoError(t, err)

	var got error
	w, err := Watch(cfg, func(_ Config, err error) { got = err })
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	w.notify(errors.New("queue overflow"))
	assert.EqualError(t, got, "queue overflow")
}

type fakeConfig struct{ Config }
