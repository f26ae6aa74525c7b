// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/noesis/pkg/types"
)

func TestSanitizeKVs(t *testing.T) {
	tests := []struct {
		name string
		in   []any
		want []any
	}{
		{
			name: "passes ordinary keys",
			in:   []any{"concept", "Graph Neural Networks", "max_tokens", 1500},
			want: []any{"concept", "Graph Neural Networks", "max_tokens", 1500},
		},
		{
			name: "redacts credentials",
			in:   []any{"neo4j_password", "hunter2", "api_key", "sk-123", "auth_token", "abc"},
			want: []any{"neo4j_password", redacted, "api_key", redacted, "auth_token", redacted},
		},
		{
			name: "keeps dangling key",
			in:   []any{"layer", 3, "orphan"},
			want: []any{"layer", 3, "orphan"},
		},
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeKVs(tt.in))
		})
	}
}

func TestLoggerRedactsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &Logger{SugaredLogger: zap.New(core).Sugar()}

	log.With("component", "test").Info("connecting", "password", "secret-value", "uri", "bolt://x")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, redacted, fields["password"])
	assert.Equal(t, "bolt://x", fields["uri"])
	assert.Equal(t, "test", fields["component"])
}

func TestNew(t *testing.T) {
	_, err := New(types.LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)

	_, err = New(types.LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)

	_, err = New(types.LogConfig{Level: "loud"})
	require.Error(t, err)
}
