package tailer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pingw33n/xerocole/internal/decoder"
	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/eventdecoder"
	"github.com/pingw33n/xerocole/internal/frame"
	"github.com/pingw33n/xerocole/internal/stream"
	"github.com/pingw33n/xerocole/internal/xsync"
)

func newLineDecoder() *decoder.BufDecoder {
	fd, err := frame.NewDecoder(frame.Config{Mode: frame.ModeLineUnix})
	if err != nil {
		panic(err)
	}
	ed, err := eventdecoder.NewText("")
	if err != nil {
		panic(err)
	}
	return decoder.New(stream.NewPlain(), fd, ed)
}

func collectMessages(t *testing.T, dir string, wantN int, timeout time.Duration) []string {
	t.Helper()
	shutdown := xsync.NewSignal()
	tr, err := New(Config{
		Globs:             []string{filepath.Join(dir, "*.log")},
		DiscoveryInterval: 20 * time.Millisecond,
		NewDecoder:        newLineDecoder,
	}, shutdown)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		shutdown.Fire()
		tr.Close()
	}()

	var messages []string
	var paths []string
	emit := func(ev *event.Event) {
		m, _ := ev.Field("message")
		p, _ := ev.Field("path")
		ms, _ := m.AsString()
		ps, _ := p.AsString()
		messages = append(messages, ms)
		paths = append(paths, ps)
	}

	if err := tr.Start(nil, emit); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(timeout)
	for len(messages) < wantN && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	_ = paths
	return messages
}

func TestTailerDiscoversAndReadsFromBeginning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.log")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := collectMessages(t, dir, 2, 3*time.Second)
	if len(got) != 2 {
		t.Fatalf("messages = %v, want 2 entries", got)
	}
	if got[0] != "one" || got[1] != "two" {
		t.Fatalf("messages = %v, want [one two]", got)
	}
}

func TestTailerRoundRobinsMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.log"), []byte("a1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.log"), []byte("b1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := collectMessages(t, dir, 2, 3*time.Second)
	if len(got) != 2 {
		t.Fatalf("messages = %v, want 2 entries", got)
	}
	seen := map[string]bool{}
	for _, m := range got {
		seen[m] = true
	}
	if !seen["a1"] || !seen["b1"] {
		t.Fatalf("messages = %v, want both a1 and b1", got)
	}
}

func TestAddOrUpdateRenameKeepsIndex(t *testing.T) {
	tr := &Tailer{cfg: Config{NewDecoder: newLineDecoder}, index: make(map[FileID]int)}
	id := FileID{Device: 1, Inode: 42}

	if !tr.addOrUpdate(id, "/var/log/app.log", 10) {
		t.Fatal("expected first addOrUpdate to add a new entry")
	}
	if len(tr.files) != 1 {
		t.Fatalf("files = %d, want 1", len(tr.files))
	}

	if tr.addOrUpdate(id, "/var/log/app.log.1", 10) {
		t.Fatal("expected second addOrUpdate (rename) to update, not add")
	}
	if len(tr.files) != 1 {
		t.Fatalf("files = %d after rename, want still 1 (index unchanged)", len(tr.files))
	}
	if tr.files[0].Path != "/var/log/app.log.1" {
		t.Fatalf("path = %q, want updated path after rename", tr.files[0].Path)
	}
	if tr.index[id] != 0 {
		t.Fatalf("index[id] = %d, want 0 (unchanged slot)", tr.index[id])
	}
}

func TestTickResetsOffsetOnTruncation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.log")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := &Tailer{cfg: Config{NewDecoder: newLineDecoder}, index: make(map[FileID]int), pulse: xsync.NewPulse()}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	id, _ := fileIDFromInfo(info)
	tr.addOrUpdate(id, path, info.Size())
	wf := tr.files[0]
	wf.Dec = newLineDecoder()
	wf.Offset = 10

	if err := os.WriteFile(path, []byte("ab"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr.tick(func(*event.Event) {})

	if wf.Offset != 0 && wf.Offset > 2 {
		t.Fatalf("offset = %d, want reset to <=2 after truncation", wf.Offset)
	}
}
