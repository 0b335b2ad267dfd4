package input

import (
	"context"
	"regexp"

	"github.com/pingw33n/xerocole/internal/decoder"
	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/eventdecoder"
	"github.com/pingw33n/xerocole/internal/frame"
	"github.com/pingw33n/xerocole/internal/registry"
	"github.com/pingw33n/xerocole/internal/stream"
	"github.com/pingw33n/xerocole/internal/tailer"
	"github.com/pingw33n/xerocole/internal/xerrors"
	"github.com/pingw33n/xerocole/internal/xsync"
	"github.com/pingw33n/xerocole/pkg/value"
)

// File is the "file" Input (spec §6.1): glob-discovers and tails files
// via internal/tailer, attaching a fresh BufDecoder (stream+frame+event
// stack) to each discovered file.
type File struct {
	cfg tailer.Config
}

// NewFile constructs a File input from already-resolved tailer config.
func NewFile(cfg tailer.Config) *File {
	return &File{cfg: cfg}
}

// Run starts the tailer and blocks until ctx is cancelled. The tailer has
// no notion of "exhausted" (files are tailed forever, spec §4.6), so Run
// only ever returns on shutdown (nil) or a construction failure.
func (f *File) Run(ctx context.Context, emit func(*event.Event)) error {
	shutdown := xsync.NewSignal()
	tr, err := tailer.New(f.cfg, shutdown)
	if err != nil {
		return xerrors.Wrap(xerrors.Io, err, "start file input")
	}
	defer tr.Close()

	if err := tr.Start(ctx, emit); err != nil {
		return xerrors.Wrap(xerrors.Io, err, "start file input discovery")
	}

	select {
	case <-ctx.Done():
	case <-shutdown.Done():
	}
	shutdown.Fire()
	return nil
}

func init() {
	registry.Register(registry.Input, "file", fileProvider)
}

func fileProvider(cfg value.Value) (registry.Starter, error) {
	tcfg, err := parseFileConfig(cfg)
	if err != nil {
		return nil, err
	}
	return registry.StarterFunc(func(ctx context.Context) (any, error) {
		return NewFile(tcfg), nil
	}), nil
}

// parseFileConfig reads the `path`/`start_position`/frame-decoder/
// event-decoder fields (spec §6.1-6.3) out of the dynamic Value tree.
func parseFileConfig(cfg value.Value) (tailer.Config, error) {
	m, ok := cfg.AsMap()
	if !ok {
		return tailer.Config{}, xerrors.New(xerrors.Parse, "file input config must be a map")
	}

	globs, err := stringList(m, "path")
	if err != nil {
		return tailer.Config{}, err
	}
	if len(globs) == 0 {
		return tailer.Config{}, xerrors.New(xerrors.Parse, "file input requires non-empty `path`")
	}

	start := tailer.StartBeginning
	if sp, ok := m["start_position"]; ok {
		s, _ := sp.Val.AsString()
		switch s {
		case "", "beginning":
			start = tailer.StartBeginning
		case "end":
			start = tailer.StartEnd
		default:
			return tailer.Config{}, xerrors.New(xerrors.Parse, "start_position must be beginning or end").WithSpan(sp.Span)
		}
	}

	frameCfg, err := parseFrameConfig(m)
	if err != nil {
		return tailer.Config{}, err
	}
	charset := ""
	if cs, ok := m["charset"]; ok {
		charset, _ = cs.Val.AsString()
	}
	codecName := "text"
	if cn, ok := m["codec"]; ok {
		if s, ok := cn.Val.AsString(); ok {
			codecName = s
		}
	}

	newDecoder := func() *decoder.BufDecoder {
		fd, err := frame.NewDecoder(frameCfg)
		if err != nil {
			fd, _ = frame.NewDecoder(frame.Config{Mode: frame.ModeLineAny})
		}
		var ed eventdecoder.Decoder
		switch codecName {
		case "lineprotocol":
			ed = eventdecoder.NewLineProtocol()
		default:
			ed, err = eventdecoder.NewText(charset)
			if err != nil {
				ed, _ = eventdecoder.NewText("")
			}
		}
		return decoder.New(stream.NewPlain(), fd, ed)
	}

	return tailer.Config{
		Globs:         globs,
		StartPosition: start,
		NewDecoder:    newDecoder,
	}, nil
}

func parseFrameConfig(m map[string]value.Spanned[value.Value]) (frame.Config, error) {
	if sv, ok := m["string"]; ok {
		s, _ := sv.Val.AsString()
		return frame.Config{Mode: frame.ModeString, Needle: []byte(s), Glue: parseGlue(m)}, nil
	}
	if lv, ok := m["line"]; ok {
		s, _ := lv.Val.AsString()
		mode, err := lineMode(s)
		if err != nil {
			return frame.Config{}, err
		}
		return frame.Config{Mode: mode, Glue: parseGlue(m)}, nil
	}
	return frame.Config{Mode: frame.ModeLineAny, Glue: parseGlue(m)}, nil
}

func lineMode(s string) (frame.Mode, error) {
	switch s {
	case "", "any":
		return frame.ModeLineAny, nil
	case "dos":
		return frame.ModeLineDos, nil
	case "unix":
		return frame.ModeLineUnix, nil
	case "mac":
		return frame.ModeLineMac, nil
	default:
		return 0, xerrors.New(xerrors.Parse, "line must be any, dos, unix, or mac")
	}
}

func parseGlue(m map[string]value.Spanned[value.Value]) *frame.Glue {
	gv, ok := m["glue"]
	if !ok {
		return nil
	}
	gm, ok := gv.Val.AsMap()
	if !ok {
		return nil
	}
	on, _ := gm["on"].Val.AsString()
	to := frame.GluePrevious
	if tv, ok := gm["to"]; ok {
		if s, _ := tv.Val.AsString(); s == "next" {
			to = frame.GlueNext
		}
	}
	re, err := regexp.Compile(on)
	if err != nil {
		return nil
	}
	return &frame.Glue{On: re, To: to}
}

func stringList(m map[string]value.Spanned[value.Value], key string) ([]string, error) {
	sv, ok := m[key]
	if !ok {
		return nil, nil
	}
	if s, ok := sv.Val.AsString(); ok {
		return []string{s}, nil
	}
	list, ok := sv.Val.AsList()
	if !ok {
		return nil, xerrors.New(xerrors.Parse, key+" must be a string or list of strings").WithSpan(sv.Span)
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.Val.AsString()
		if !ok {
			return nil, xerrors.New(xerrors.Parse, key+" entries must be strings").WithSpan(e.Span)
		}
		out = append(out, s)
	}
	return out, nil
}
