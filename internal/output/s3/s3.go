// Package s3 adapts the teacher's S3 parquet archive target
// (pkg/archive/parquet/target.go) into an output.Sink: instead of one
// parquet file per archival run, it batches debug-encoded events and
// uploads them as newline-delimited text objects once a batch fills or
// Close is called.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/output"
	"github.com/pingw33n/xerocole/internal/registry"
	"github.com/pingw33n/xerocole/internal/xerrors"
	"github.com/pingw33n/xerocole/pkg/value"
)

// Config mirrors the teacher's S3TargetConfig.
type Config struct {
	Endpoint     string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Region       string
	UsePathStyle bool
	// BatchSize is the number of events buffered before a PutObject call.
	BatchSize int
}

// Sink batches encoded events and uploads them as objects (spec's
// domain-stack table: "an additional output sink: batches encoded events
// and uploads them as objects").
type Sink struct {
	client *s3.Client
	bucket string
	enc    output.Encoder
	batch  int

	mu      sync.Mutex
	pending bytes.Buffer
	count   int
	seq     int
}

func New(cfg Config, enc output.Encoder) (*Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 output: empty bucket name")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("s3 output: load AWS config: %w", err)
	}

	opts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}

	return &Sink{
		client: s3.NewFromConfig(awsCfg, opts),
		bucket: cfg.Bucket,
		enc:    enc,
		batch:  batch,
	}, nil
}

func (s *Sink) Write(ev *event.Event) error {
	s.mu.Lock()
	s.pending.Write(s.enc.Encode(ev))
	s.pending.WriteByte('\n')
	s.count++
	full := s.count >= s.batch
	s.mu.Unlock()

	if full {
		return s.flush()
	}
	return nil
}

func (s *Sink) flush() error {
	s.mu.Lock()
	if s.count == 0 {
		s.mu.Unlock()
		return nil
	}
	data := append([]byte(nil), s.pending.Bytes()...)
	s.pending.Reset()
	s.count = 0
	s.seq++
	key := fmt.Sprintf("events-%d-%d.log", time.Now().UnixNano(), s.seq)
	s.mu.Unlock()

	_, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("s3 output: put object %q: %w", key, err)
	}
	return nil
}

func (s *Sink) Close() error { return s.flush() }

func init() {
	registry.Register(registry.Output, "s3", s3Provider)
}

func s3Provider(cfg value.Value) (registry.Starter, error) {
	scfg, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}
	return registry.StarterFunc(func(ctx context.Context) (any, error) {
		return New(scfg, output.NewDebugEncoder())
	}), nil
}

func parseConfig(cfg value.Value) (Config, error) {
	m, ok := cfg.AsMap()
	if !ok {
		return Config{}, xerrors.New(xerrors.Parse, "s3 output config must be a map")
	}
	bucket, ok := stringField(m, "bucket")
	if !ok {
		return Config{}, xerrors.New(xerrors.Parse, "s3 output requires `bucket`")
	}

	var c Config
	c.Bucket = bucket
	c.Endpoint, _ = stringField(m, "endpoint")
	c.AccessKey, _ = stringField(m, "access_key")
	c.SecretKey, _ = stringField(m, "secret_key")
	c.Region, _ = stringField(m, "region")
	if sv, ok := m["use_path_style"]; ok {
		c.UsePathStyle, _ = sv.Val.AsBool()
	}
	if sv, ok := m["batch_size"]; ok {
		n, _ := sv.Val.AsInt()
		c.BatchSize = int(n)
	}
	return c, nil
}

func stringField(m map[string]value.Spanned[value.Value], key string) (string, bool) {
	sv, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := sv.Val.AsString()
	return s, ok
}
