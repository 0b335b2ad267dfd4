// Package tailer implements the FileTailer component from spec §4.6:
// glob-based discovery of files identified by (device, inode), a
// round-robin read loop driving one BufDecoder per file, and a pulse that
// coalesces "more work may be ready" wakeups.
package tailer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/pingw33n/xerocole/internal/decoder"
	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/util"
	"github.com/pingw33n/xerocole/internal/xsync"
	"github.com/pingw33n/xerocole/pkg/log"
	"github.com/pingw33n/xerocole/pkg/value"
)

// StartPosition controls where a newly discovered file begins reading
// from (spec §4.6.3).
type StartPosition int

const (
	StartBeginning StartPosition = iota
	StartEnd
)

// WatchedFile is one entry of the Tailer's file list (spec §3). mu
// protects the read + decode section (Offset/KnownLen/handle/Dec) so a
// concurrent discover()-driven update doesn't race the read loop (spec
// §5: "each WatchedFile protected by its own mutex for the read +
// decode section").
type WatchedFile struct {
	ID   FileID
	Path string

	mu       sync.Mutex
	Offset   int64
	KnownLen int64
	Dec      *decoder.BufDecoder

	handle *os.File
}

// Config configures a Tailer.
type Config struct {
	Globs             []string
	DiscoveryInterval time.Duration
	StartPosition     StartPosition
	// NewDecoder builds a fresh BufDecoder (its own StreamDecoder/
	// FrameDecoder/EventDecoder chain) for each newly discovered file.
	NewDecoder func() *decoder.BufDecoder
}

// Tailer is the FileTailer (C6).
type Tailer struct {
	cfg Config

	mu    sync.Mutex
	files []*WatchedFile
	index map[FileID]int
	cur   int

	pulse     *xsync.Pulse
	shutdown  *xsync.Signal
	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler
}

func New(cfg Config, shutdown *xsync.Signal) (*Tailer, error) {
	if cfg.DiscoveryInterval <= 0 {
		cfg.DiscoveryInterval = 5 * time.Second
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		w.Close()
		return nil, err
	}
	return &Tailer{
		cfg:       cfg,
		index:     make(map[FileID]int),
		pulse:     xsync.NewPulse(),
		shutdown:  shutdown,
		watcher:   w,
		scheduler: sched,
	}, nil
}

// Start runs discovery once immediately, schedules the recurring
// discovery tick, and launches the fsnotify listener and read loop as
// background goroutines. Every filesystem syscall they perform is
// blocking, which is fine — each runs on its own goroutine and the Go
// runtime offloads blocking syscalls to a separate OS thread so the rest
// of the process keeps making progress (spec §5).
func (t *Tailer) Start(ctx context.Context, emit func(*event.Event)) error {
	t.discover()

	if _, err := t.scheduler.NewJob(
		gocron.DurationJob(t.cfg.DiscoveryInterval),
		gocron.NewTask(func() { t.discover() }),
	); err != nil {
		return err
	}
	t.scheduler.Start()

	go t.watchFsEvents()
	go t.readLoop(emit)
	return nil
}

func (t *Tailer) Close() {
	t.scheduler.Shutdown()
	t.watcher.Close()
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, wf := range t.files {
		if wf.handle != nil {
			wf.handle.Close()
		}
		wf.Dec.Close()
	}
}

// discover implements spec §4.6.1.
func (t *Tailer) discover() {
	added := false
	seenDirs := make(map[string]bool)

	for _, g := range t.cfg.Globs {
		matches, err := doublestar.FilepathGlob(g)
		if err != nil {
			log.Warnf("tailer: bad glob %q: %v", g, err)
			continue
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			id, ok := fileIDFromInfo(info)
			if !ok {
				continue
			}
			if t.addOrUpdate(id, path, info.Size()) {
				added = true
			}

			dir := filepath.Dir(path)
			if !seenDirs[dir] {
				seenDirs[dir] = true
				if err := t.watcher.Add(dir); err != nil {
					log.Warnf("tailer: watch %q: %v", dir, err)
				}
				log.Debugf("tailer: watching %q (%d entries)", dir, util.GetFilecount(dir))
			}
		}
	}

	if added {
		t.pulse.Send()
	}
}

// addOrUpdate inserts a new WatchedFile if id is unseen, or refreshes the
// known length and recorded path (rename) of an existing one. Returns
// true only when a new entry was added.
func (t *Tailer) addOrUpdate(id FileID, path string, size int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i, ok := t.index[id]; ok {
		wf := t.files[i]
		wf.mu.Lock()
		wf.Path = path
		wf.KnownLen = size
		wf.mu.Unlock()
		return false
	}

	offset := int64(0)
	if t.cfg.StartPosition == StartEnd {
		offset = size
	}
	wf := &WatchedFile{
		ID:       id,
		Path:     path,
		Offset:   offset,
		KnownLen: size,
		Dec:      t.cfg.NewDecoder(),
	}
	t.index[id] = len(t.files)
	t.files = append(t.files, wf)
	return true
}

func (t *Tailer) watchFsEvents() {
	for {
		select {
		case <-t.shutdown.Done():
			return
		case _, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			t.discover()
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("tailer: watch error: %v", err)
		}
	}
}

// readLoop implements the wakeup rule of spec §4.6.2: wait for a pulse
// (from discovery or self-queued after progress), then process one file.
func (t *Tailer) readLoop(emit func(*event.Event)) {
	for {
		select {
		case <-t.shutdown.Done():
			return
		case <-t.pulse.C():
		}
		t.tick(emit)
	}
}

func (t *Tailer) tick(emit func(*event.Event)) {
	t.mu.Lock()
	if len(t.files) == 0 {
		t.mu.Unlock()
		return
	}
	t.cur %= len(t.files)
	wf := t.files[t.cur]
	more := len(t.files) > 1
	t.mu.Unlock()

	wf.mu.Lock()
	defer wf.mu.Unlock()

	if !util.CheckFileExists(wf.Path) {
		log.Warnf("tailer: restat %q (id %s): file missing", wf.Path, wf.ID.ShortHash())
		t.advance()
		return
	}
	wf.KnownLen = util.GetFilesize(wf.Path)

	if wf.Offset > wf.KnownLen {
		// Truncation: reset to 0. Full rotation-on-truncate detection
		// (distinguishing in-place truncation from a new file reusing
		// the path before discovery notices the inode change) is an
		// open question (spec §9); TODO: compare the restat'd file_id
		// here and treat a changed inode as a brand-new file instead.
		wf.Offset = 0
	}

	if wf.Offset == wf.KnownLen {
		t.advance()
		if more {
			t.pulse.Send()
		}
		return
	}

	t.readChunk(wf, emit)
}

func (t *Tailer) advance() {
	t.mu.Lock()
	t.cur++
	t.mu.Unlock()
}

func (t *Tailer) readChunk(wf *WatchedFile, emit func(*event.Event)) {
	if wf.handle == nil {
		f, err := os.Open(wf.Path)
		if err != nil {
			log.Warnf("tailer: open %q: %v", wf.Path, err)
			return
		}
		wf.handle = f
	}

	wb := wf.Dec.WritableBuffer()
	wb.EnsureWriteable()
	region := wb.WriteRegion()

	toRead := wf.KnownLen - wf.Offset
	if int64(len(region)) < toRead {
		toRead = int64(len(region))
	}

	n, err := wf.handle.ReadAt(region[:toRead], wf.Offset)
	if err != nil && err != io.EOF {
		log.Warnf("tailer: read %q: %v", wf.Path, err)
	}
	wb.AdvanceWrite(n)
	wf.Offset += int64(n)

	path := wf.Path
	tagged := func(ev *event.Event) {
		ev.SetField("path", value.NewString(path))
		emit(ev)
	}
	if _, err := wf.Dec.Decode(tagged); err != nil {
		log.Errorf("tailer: decode %q: %v", path, err)
	}

	t.pulse.Send()
}
