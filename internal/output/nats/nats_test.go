package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingw33n/xerocole/pkg/value"
)

func TestParseConfigRequiresAddressAndSubject(t *testing.T) {
	_, err := parseConfig(value.NewMap(map[string]value.Spanned[value.Value]{
		"subject": value.WithSpan(value.NewString("events"), value.Span{}),
	}, []string{"subject"}))
	assert.Error(t, err)

	_, err = parseConfig(value.NewMap(map[string]value.Spanned[value.Value]{
		"address": value.WithSpan(value.NewString("nats://localhost:4222"), value.Span{}),
	}, []string{"address"}))
	assert.Error(t, err)
}

func TestParseConfigAppliesOptionalCredentials(t *testing.T) {
	cfg := value.NewMap(map[string]value.Spanned[value.Value]{
		"address":  value.WithSpan(value.NewString("nats://localhost:4222"), value.Span{}),
		"subject":  value.WithSpan(value.NewString("events.log"), value.Span{}),
		"username": value.WithSpan(value.NewString("svc"), value.Span{}),
		"password": value.WithSpan(value.NewString("secret"), value.Span{}),
	}, []string{"address", "subject", "username", "password"})

	c, err := parseConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "nats://localhost:4222", c.Address)
	assert.Equal(t, "events.log", c.Subject)
	assert.Equal(t, "svc", c.Username)
	assert.Equal(t, "secret", c.Password)
}

func TestNewRejectsMissingAddress(t *testing.T) {
	_, err := New(Config{Subject: "events"}, nil)
	assert.Error(t, err)
}
