// Package nats adapts the teacher's generic pub/sub client
// (pkg/nats/client.go) from a metric-ingestion subscriber into an output
// sink: Write publishes the encoded event to a configured subject.
package nats

import (
	"context"
	"fmt"

	natsgo "github.com/nats-io/nats.go"

	"github.com/pingw33n/xerocole/internal/event"
	"github.com/pingw33n/xerocole/internal/output"
	"github.com/pingw33n/xerocole/internal/registry"
	"github.com/pingw33n/xerocole/internal/xerrors"
	"github.com/pingw33n/xerocole/pkg/value"
)

// Config mirrors the teacher's NatsConfig (pkg/nats/config.go).
type Config struct {
	Address       string
	Username      string
	Password      string
	CredsFilePath string
	Subject       string
}

// Sink publishes every event, debug-encoded by default, to cfg.Subject.
type Sink struct {
	conn    *natsgo.Conn
	subject string
	enc     output.Encoder
}

func New(cfg Config, enc output.Encoder) (*Sink, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("nats output: address is required")
	}
	if cfg.Subject == "" {
		return nil, fmt.Errorf("nats output: subject is required")
	}

	var opts []natsgo.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, natsgo.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, natsgo.UserCredentials(cfg.CredsFilePath))
	}

	conn, err := natsgo.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats output: connect: %w", err)
	}

	return &Sink{conn: conn, subject: cfg.Subject, enc: enc}, nil
}

func (s *Sink) Write(ev *event.Event) error {
	if err := s.conn.Publish(s.subject, s.enc.Encode(ev)); err != nil {
		return fmt.Errorf("nats output: publish to %q: %w", s.subject, err)
	}
	return nil
}

func (s *Sink) Close() error {
	if err := s.conn.Flush(); err != nil {
		return err
	}
	s.conn.Close()
	return nil
}

func init() {
	registry.Register(registry.Output, "nats", natsProvider)
}

func natsProvider(cfg value.Value) (registry.Starter, error) {
	ncfg, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}
	return registry.StarterFunc(func(ctx context.Context) (any, error) {
		return New(ncfg, output.NewDebugEncoder())
	}), nil
}

func parseConfig(cfg value.Value) (Config, error) {
	m, ok := cfg.AsMap()
	if !ok {
		return Config{}, xerrors.New(xerrors.Parse, "nats output config must be a map")
	}

	address, ok := reqString(m, "address")
	if !ok {
		return Config{}, xerrors.New(xerrors.Parse, "nats output requires `address`")
	}
	subject, ok := reqString(m, "subject")
	if !ok {
		return Config{}, xerrors.New(xerrors.Parse, "nats output requires `subject`")
	}

	var c Config
	c.Address = address
	c.Subject = subject
	if sv, ok := m["username"]; ok {
		c.Username, _ = sv.Val.AsString()
	}
	if sv, ok := m["password"]; ok {
		c.Password, _ = sv.Val.AsString()
	}
	if sv, ok := m["creds_file"]; ok {
		c.CredsFilePath, _ = sv.Val.AsString()
	}
	return c, nil
}

func reqString(m map[string]value.Spanned[value.Value], key string) (string, bool) {
	sv, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := sv.Val.AsString()
	return s, ok
}
