package eventdecoder

import (
	"unicode/utf8"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/xerrors"
	"github.com/pingw33n/xerocole/pkg/value"
)

// Text is the default EventDecoder (spec §4.4): it decodes frame as UTF-8,
// replacing invalid sequences with U+FFFD, and emits exactly one event
// whose fields["message"] holds the resulting string.
type Text struct{}

// NewText validates the configured charset and returns a Text decoder.
// Only UTF-8 (or an absent charset) is supported; any other charset is
// rejected at configuration time rather than silently mistranscoded (spec
// §4.4, §9 open question).
func NewText(charset string) (*Text, error) {
	if charset != "" && charset != "UTF-8" && charset != "utf-8" {
		return nil, xerrors.New(xerrors.Parse, "eventdecoder: unsupported charset "+charset+" (only UTF-8 is implemented)")
	}
	return &Text{}, nil
}

func (t *Text) Decode(frame []byte, emit func(*event.Event)) (int, error) {
	s := toValidUTF8(frame)
	ev := event.New()
	ev.SetField("message", value.NewString(s))
	emit(ev)
	return 1, nil
}

func (t *Text) Finish(emit func(*event.Event)) int { return 0 }

// toValidUTF8 copies frame into a string, replacing any invalid UTF-8
// sequence with U+FFFD, since frame is a borrowed slice that must not be
// retained past this call.
func toValidUTF8(frame []byte) string {
	if utf8.Valid(frame) {
		return string(frame)
	}
	buf := make([]rune, 0, len(frame))
	for i := 0; i < len(frame); {
		r, size := utf8.DecodeRune(frame[i:])
		buf = append(buf, r)
		i += size
	}
	return string(buf)
}
