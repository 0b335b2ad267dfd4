package eventdecoder

import (
	"fmt"
	"time"

	influx "github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/xerrors"
	"github.com/pingw33n/xerocole/pkg/value"
)

// LineProtocol decodes each frame as one InfluxDB line-protocol point,
// turning its measurement into fields["measurement"], its tags into
// tags[...], and its fields into fields[...], plus fields["time"] when a
// timestamp is present. Grounded on the teacher's
// DecodeInfluxMessage(measurement/tags/fields/time) walk, repurposed from
// metric ingestion onto the general EventDecoder contract.
type LineProtocol struct {
	precision influx.Precision
}

func NewLineProtocol() *LineProtocol {
	return &LineProtocol{precision: influx.Nanosecond}
}

func (l *LineProtocol) Decode(frame []byte, emit func(*event.Event)) (int, error) {
	dec := influx.NewDecoderWithBytes(frame)
	written := 0
	for dec.Next() {
		ev, err := l.decodePoint(dec)
		if err != nil {
			return written, xerrors.Wrap(xerrors.Parse, err, "eventdecoder: line-protocol")
		}
		emit(ev)
		written++
	}
	return written, nil
}

func (l *LineProtocol) decodePoint(dec *influx.Decoder) (*event.Event, error) {
	measurement, err := dec.Measurement()
	if err != nil {
		return nil, err
	}
	ev := event.New()
	ev.SetField("measurement", value.NewString(string(measurement)))

	for {
		key, val, err := dec.NextTag()
		if err != nil {
			return nil, err
		}
		if key == nil {
			break
		}
		ev.SetTag(string(key), value.NewString(string(val)))
	}

	for {
		key, val, err := dec.NextField()
		if err != nil {
			return nil, err
		}
		if key == nil {
			break
		}
		ev.SetField(string(key), fieldValue(val))
	}

	t, err := dec.Time(l.precision, time.Time{})
	if err != nil {
		return nil, err
	}
	if !t.IsZero() {
		ev.SetField("time", value.NewString(t.Format(time.RFC3339Nano)))
	}
	return ev, nil
}

func (l *LineProtocol) Finish(emit func(*event.Event)) int { return 0 }

func fieldValue(v influx.Value) value.Value {
	switch v.Kind() {
	case influx.Int:
		n, _ := v.IntV()
		return value.NewInt(n)
	case influx.Uint:
		n, _ := v.UintV()
		return value.NewInt(int64(n))
	case influx.Float:
		f, _ := v.FloatV()
		return value.NewFloat(f)
	case influx.Bool:
		b, _ := v.BoolV()
		return value.NewBool(b)
	case influx.String:
		s, _ := v.StringV()
		return value.NewString(s)
	default:
		return value.NewString(fmt.Sprint(v.Interface()))
	}
}
