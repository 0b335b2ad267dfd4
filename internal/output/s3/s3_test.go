package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/output"
	"github.com/pingw33n/xerocole/pkg/value"
)

func TestWriteBuffersBelowBatchSizeWithoutFlushing(t *testing.T) {
	s := &Sink{enc: output.NewDebugEncoder(), batch: 3}
	require.NoError(t, s.Write(event.New()))
	require.NoError(t, s.Write(event.New()))
	assert.Equal(t, 2, s.count)
	assert.Positive(t, s.pending.Len())
}

func TestParseConfigRequiresBucket(t *testing.T) {
	cfg := value.NewMap(map[string]value.Spanned[value.Value]{
		"endpoint": value.WithSpan(value.NewString("http://localhost:9000"), value.Span{}),
	}, []string{"endpoint"})
	_, err := parseConfig(cfg)
	assert.Error(t, err)
}

func TestParseConfigAppliesFields(t *testing.T) {
	cfg := value.NewMap(map[string]value.Spanned[value.Value]{
		"bucket":         value.WithSpan(value.NewString("events"), value.Span{}),
		"region":         value.WithSpan(value.NewString("eu-west-1"), value.Span{}),
		"use_path_style": value.WithSpan(value.NewBool(true), value.Span{}),
		"batch_size":     value.WithSpan(value.NewInt(50), value.Span{}),
	}, []string{"bucket", "region", "use_path_style", "batch_size"})

	c, err := parseConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "events", c.Bucket)
	assert.Equal(t, "eu-west-1", c.Region)
	assert.True(t, c.UsePathStyle)
	assert.Equal(t, 50, c.BatchSize)
}
