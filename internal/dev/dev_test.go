package dev

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	merrors "github.com/vango-dev/meridian/internal/errors"
)

func touch(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func startWatcher(t *testing.T, dir string) chan Change {
	t.Helper()
	watcher := NewWatcher(WatcherConfig{
		Paths:    []string{dir},
		Interval: 20 * time.Millisecond,
	})
	changes := make(chan Change, 10)
	watcher.OnChange(func(c Change) {
		changes <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		watcher.Stop()
	})
	go watcher.Start(ctx)

	// wait for the initial scan
	time.Sleep(100 * time.Millisecond)
	return changes
}

func waitChange(t *testing.T, changes chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
		return Change{}
	}
}

func TestWatcher_Modify(t *testing.T) {
	tmpDir := t.TempDir()
	posts := filepath.Join(tmpDir, "posts.json")
	touch(t, posts, "[]", time.Now().Add(-time.Hour))

	changes := startWatcher(t, tmpDir)
	touch(t, posts, `[{"slug":"a"}]`, time.Now())

	change := waitChange(t, changes)
	if change.Type != ChangeData || change.Path != posts {
		t.Errorf("change = %+v", change)
	}
}

func TestWatcher_NewAndDeletedFile(t *testing.T) {
	tmpDir := t.TempDir()
	changes := startWatcher(t, tmpDir)

	manifest := filepath.Join(tmpDir, "routes.msgpack")
	touch(t, manifest, "x", time.Now())
	if change := waitChange(t, changes); change.Type != ChangeManifest {
		t.Errorf("new file change = %+v", change)
	}

	if err := os.Remove(manifest); err != nil {
		t.Fatal(err)
	}
	if change := waitChange(t, changes); change.Path != manifest {
		t.Errorf("delete change = %+v", change)
	}
}

func TestWatcher_Ignore(t *testing.T) {
	tmpDir := t.TempDir()

	watcher := NewWatcher(WatcherConfig{
		Paths:  []string{tmpDir},
		Ignore: []string{"*_test.go", "vendor", "data/cache"},
	})

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(tmpDir, "foo_test.go"), true},
		{filepath.Join(tmpDir, "vendor", "lib.go"), true},
		{filepath.Join(tmpDir, "data", "cache", "x.json"), true},
		{filepath.Join(tmpDir, "data", "posts.json"), false},
		{filepath.Join(tmpDir, "main.go"), false},
	}
	for _, tt := range tests {
		if got := watcher.shouldIgnore(tt.path); got != tt.want {
			t.Errorf("shouldIgnore(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcher_IgnoreSegments(t *testing.T) {
	watcher := NewWatcher(WatcherConfig{
		Paths:  []string{"."},
		Ignore: []string{"tmp"},
	})

	if !watcher.shouldIgnore(filepath.Join("foo", "tmp", "bar.go")) {
		t.Error("Should ignore tmp directory segment")
	}
	if watcher.shouldIgnore(filepath.Join("foo", "attempt.go")) {
		t.Error("Should not ignore substring match")
	}
}

func TestWatcher_IsRunning(t *testing.T) {
	watcher := NewWatcher(WatcherConfig{Paths: []string{t.TempDir()}})
	if watcher.IsRunning() {
		t.Error("Watcher should not be running initially")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		watcher.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for !watcher.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !watcher.IsRunning() {
		t.Fatal("Watcher should be running")
	}

	watcher.Stop()
	<-done
	if watcher.IsRunning() {
		t.Error("Watcher should be stopped")
	}
}

func TestWatcher_ConfiguredManifest(t *testing.T) {
	w := NewWatcher(WatcherConfig{Manifests: []string{"site/build/table.mpk"}})
	if got := w.classify(filepath.FromSlash("site/build/table.mpk")); got != ChangeManifest {
		t.Errorf("configured manifest = %v", got)
	}
	if got := w.classify("other.mpk"); got != ChangeData {
		t.Errorf("other.mpk = %v", got)
	}
}

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		path string
		want ChangeType
	}{
		{"meridian.toml", ChangeConfig},
		{"site/meridian.json", ChangeConfig},
		{"routes.json", ChangeManifest},
		{"routes.msgpack", ChangeManifest},
		{"routes.mpk", ChangeManifest},
		{"myroutes.json", ChangeData},
		{"main.go", ChangeSource},
		{"card.templ", ChangeSource},
		{"posts.json", ChangeData},
		{"image.png", ChangeData},
	}

	for _, tt := range tests {
		if got := classifyChange(tt.path); got != tt.want {
			t.Errorf("classifyChange(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatchPaths(t *testing.T) {
	got := WatchPaths("/site", "data", "", "/abs/routes.json", "data/", "pages")
	want := []string{"/site/data", "/abs/routes.json", "/site/pages"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("WatchPaths = %v, want %v", got, want)
	}
}

func dialReload(t *testing.T, rs *ReloadServer, srvURL string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srvURL, "http")+ReloadPath, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for rs.ClientCount() != want && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if rs.ClientCount() != want {
		t.Fatalf("ClientCount() = %d, want %d", rs.ClientCount(), want)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestReloadServer(t *testing.T) {
	rs := NewReloadServer(nil)
	srv := httptest.NewServer(rs)
	defer srv.Close()
	defer rs.Close()

	if rs.ClientCount() != 0 {
		t.Fatalf("ClientCount() = %d, want 0", rs.ClientCount())
	}
	conn := dialReload(t, rs, srv.URL, 1)
	defer conn.Close()

	rs.NotifyReload("data/posts.json")
	if msg := readMessage(t, conn); msg.Type != MessageReload || msg.Reason != "data/posts.json" {
		t.Errorf("msg = %+v", msg)
	}

	rs.NotifyError(merrors.New("M003").WithDetail("/blog/x"))
	msg := readMessage(t, conn)
	if msg.Type != MessageError || msg.Code != "M003" || !strings.Contains(msg.Error, "/blog/x") {
		t.Errorf("msg = %+v", msg)
	}

	// A browser connecting while the error is shown gets it right away.
	late := dialReload(t, rs, srv.URL, 2)
	defer late.Close()
	if msg := readMessage(t, late); msg.Type != MessageError || msg.Code != "M003" {
		t.Errorf("replayed msg = %+v", msg)
	}

	rs.ClearError()
	if msg := readMessage(t, conn); msg.Type != MessageClear {
		t.Errorf("msg = %+v", msg)
	}
	readMessage(t, late)

	rs.Close()
	if rs.ClientCount() != 0 {
		t.Errorf("ClientCount() after Close = %d", rs.ClientCount())
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after Close")
	}
}

func TestClientScript(t *testing.T) {
	for _, want := range []string{ReloadPath, "location.reload()", "meridian-error-overlay"} {
		if !strings.Contains(ClientScript, want) {
			t.Errorf("ClientScript missing %q", want)
		}
	}
	if strings.Contains(ClientScript, "</script>") {
		t.Error("ClientScript must be a script body")
	}
}
