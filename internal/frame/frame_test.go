package frame

import (
	"reflect"
	"regexp"
	"testing"
)

func collect() (func([]byte), *[]string) {
	out := []string{}
	return func(b []byte) { out = append(out, string(b)) }, &out
}

// S1. Line-any, chunked.
func TestLineAnyChunked(t *testing.T) {
	d, err := NewDecoder(Config{Mode: ModeLineAny})
	if err != nil {
		t.Fatal(err)
	}
	full := "line 1\r\nline 2\nline 3\r\nline 4"
	in := []byte(full)

	emit, out := collect()

	read, written, err := d.Decode(in[0:22], emit)
	if err != nil || read != 15 || written != 2 {
		t.Fatalf("first decode: read=%d written=%d err=%v", read, written, err)
	}

	read, written, err = d.Decode(in[15:23], emit)
	if err != nil || read != 8 || written != 1 {
		t.Fatalf("second decode: read=%d written=%d err=%v", read, written, err)
	}

	fread, fwritten := d.Finish(in[23:29], emit)
	if fread != 6 || fwritten != 1 {
		t.Fatalf("finish: read=%d written=%d", fread, fwritten)
	}

	want := []string{"line 1", "line 2", "line 3", "line 4"}
	if !reflect.DeepEqual(*out, want) {
		t.Fatalf("got %v, want %v", *out, want)
	}
}

// S2. CR-only at end needs finish.
func TestLineAnyCROnlyNeedsFinish(t *testing.T) {
	d, err := NewDecoder(Config{Mode: ModeLineAny})
	if err != nil {
		t.Fatal(err)
	}
	emit, out := collect()

	read, written, err := d.Decode([]byte("\r"), emit)
	if err != nil || read != 0 || written != 0 {
		t.Fatalf("decode: read=%d written=%d err=%v", read, written, err)
	}

	fread, fwritten := d.Finish([]byte("\r"), emit)
	if fread != 1 || fwritten != 2 {
		t.Fatalf("finish: read=%d written=%d", fread, fwritten)
	}
	want := []string{"", ""}
	if !reflect.DeepEqual(*out, want) {
		t.Fatalf("got %v, want %v", *out, want)
	}
}

// S3. Fixed string, long needle.
func TestFixedStringLongNeedle(t *testing.T) {
	d, err := NewDecoder(Config{Mode: ModeString, Needle: []byte("ddddelim")})
	if err != nil {
		t.Fatal(err)
	}
	emit, out := collect()

	in := []byte("line1_dddddelim_line2_ddddelim")
	read, written, err := d.Decode(in, emit)
	if err != nil || read != 30 || written != 2 {
		t.Fatalf("decode: read=%d written=%d err=%v", read, written, err)
	}
	want := []string{"line1_d", "_line2_"}
	if !reflect.DeepEqual(*out, want) {
		t.Fatalf("got %v, want %v", *out, want)
	}
}

// S4. Glue to previous.
func TestGlueToPrevious(t *testing.T) {
	on := regexp.MustCompile(`^[\s!]`)
	d, err := NewDecoder(Config{Mode: ModeLineAny, Glue: &Glue{On: on, To: GluePrevious}})
	if err != nil {
		t.Fatal(err)
	}
	emit, out := collect()

	in := []byte("line0\r\nline1\n line1.2\n! line1.3\nline2\n\tline2.1\r")
	read, _, err := d.Decode(in, emit)
	if err != nil {
		t.Fatal(err)
	}
	wantDecode := []string{"line0", "line1\n line1.2\n! line1.3"}
	if !reflect.DeepEqual(*out, wantDecode) {
		t.Fatalf("after decode: got %v, want %v", *out, wantDecode)
	}

	d.Finish(in[read:], emit)
	wantFinal := []string{"line0", "line1\n line1.2\n! line1.3", "line2\n\tline2.1", ""}
	if !reflect.DeepEqual(*out, wantFinal) {
		t.Fatalf("after finish: got %v, want %v", *out, wantFinal)
	}
}

// S5. Glue to next.
func TestGlueToNext(t *testing.T) {
	on := regexp.MustCompile(`[~!]$`)
	d, err := NewDecoder(Config{Mode: ModeLineAny, Glue: &Glue{On: on, To: GlueNext}})
	if err != nil {
		t.Fatal(err)
	}
	emit, out := collect()

	in := []byte("line1\rline2 ~\nline2.1 !\nline2.2\nline3!\rline3.1~\r")
	read, _, err := d.Decode(in, emit)
	if err != nil {
		t.Fatal(err)
	}
	wantDecode := []string{"line1", "line2 ~\nline2.1 !\nline2.2"}
	if !reflect.DeepEqual(*out, wantDecode) {
		t.Fatalf("after decode: got %v, want %v", *out, wantDecode)
	}

	d.Finish(in[read:], emit)
	wantFinal := []string{"line1", "line2 ~\nline2.1 !\nline2.2", "line3!\rline3.1~", ""}
	if !reflect.DeepEqual(*out, wantFinal) {
		t.Fatalf("after finish: got %v, want %v", *out, wantFinal)
	}
}

// Determinism property (spec §8): the same input split at any point
// produces the same frame sequence as feeding it whole.
func TestDeterminismAcrossChunking(t *testing.T) {
	full := "alpha\nbeta\ngamma\ndelta\nepsilon"
	for split := 0; split <= len(full); split++ {
		d, err := NewDecoder(Config{Mode: ModeLineUnix})
		if err != nil {
			t.Fatal(err)
		}
		emit, out := collect()
		in := []byte(full)

		pending := append([]byte(nil), in[:split]...)
		r, _, err := d.Decode(pending, emit)
		if err != nil {
			t.Fatal(err)
		}
		pending = append(pending[r:], in[split:]...)
		r, _, err = d.Decode(pending, emit)
		if err != nil {
			t.Fatal(err)
		}
		d.Finish(pending[r:], emit)

		want := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
		if !reflect.DeepEqual(*out, want) {
			t.Fatalf("split=%d: got %v, want %v", split, *out, want)
		}
	}
}

func TestEmptyNeedleWholeInputAsSingleFrame(t *testing.T) {
	d, err := NewDecoder(Config{Mode: ModeString})
	if err != nil {
		t.Fatal(err)
	}
	emit, out := collect()

	read, written, err := d.Decode([]byte("anything at all"), emit)
	if err != nil || read != 0 || written != 0 {
		t.Fatalf("decode should buffer indefinitely: read=%d written=%d err=%v", read, written, err)
	}

	fread, fwritten := d.Finish([]byte("anything at all"), emit)
	if fread != len("anything at all") || fwritten != 1 {
		t.Fatalf("finish: read=%d written=%d", fread, fwritten)
	}
	if !reflect.DeepEqual(*out, []string{"anything at all"}) {
		t.Fatalf("got %v", *out)
	}
}
