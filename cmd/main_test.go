package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luca-patrignani/mental-santa/config"
	"github.com/luca-patrignani/mental-santa/domain/santa"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)
	require.Equal(t, config.Default(), opts.Config)
	require.Empty(t, opts.Listen)
}

func TestParseFlagsLocal(t *testing.T) {
	opts, err := parseFlags([]string{"-n", "4", "-reveal", "-debug"}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, 4, opts.Participants)
	require.True(t, opts.Reveal)
	require.True(t, opts.Debug)
	require.False(t, opts.Networked())
}

func TestParseFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.yaml")
	content := "timeout: 10s\npeers:\n  - 127.0.0.1:9000\n  - 127.0.0.1:9001\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	opts, err := parseFlags([]string{"-config", path, "-rank", "1"}, io.Discard)
	require.NoError(t, err)
	require.True(t, opts.Networked())
	require.Equal(t, 1, opts.Rank)
	require.Equal(t, 10*time.Second, opts.Timeout)

	opts, err = parseFlags([]string{"-config", path, "-rank", "1", "-timeout", "1m"}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, time.Minute, opts.Timeout)

	_, err = parseFlags([]string{"-config", path, "-rank", "2"}, io.Discard)
	require.ErrorIs(t, err, santa.ErrInvalidConfig)

	_, err = parseFlags([]string{"-config", path, "-listen", "127.0.0.1"}, io.Discard)
	require.ErrorIs(t, err, santa.ErrInvalidConfig)

	_, err = parseFlags([]string{"-config", path, "-discover", "3"}, io.Discard)
	require.ErrorIs(t, err, santa.ErrInvalidConfig)
}

func TestParseFlagsDiscover(t *testing.T) {
	opts, err := parseFlags([]string{"-discover", "3", "-name", "alice"}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, 3, opts.Discover)
	require.Equal(t, 3, opts.ParticipantCount())
	require.Equal(t, "alice", opts.Name)

	_, err = parseFlags([]string{"-discover", "1"}, io.Discard)
	require.ErrorIs(t, err, santa.ErrInvalidConfig)
}

func TestParseFlagsInvalid(t *testing.T) {
	_, err := parseFlags([]string{"-n", "1"}, io.Discard)
	require.ErrorIs(t, err, santa.ErrInvalidConfig)

	_, err = parseFlags([]string{"-suite", "nope"}, io.Discard)
	require.ErrorIs(t, err, santa.ErrInvalidConfig)

	_, err = parseFlags([]string{"extra"}, io.Discard)
	require.Error(t, err)

	_, err = parseFlags([]string{"-unknown"}, io.Discard)
	require.Error(t, err)
}

func TestRunLocal(t *testing.T) {
	c := config.Default()
	c.Participants = 3
	require.NoError(t, runLocal(c, discardLogger()))
	c.Reveal = true
	require.NoError(t, runLocal(c, discardLogger()))
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(0)
	defer cancel()
	_, ok := ctx.Deadline()
	require.False(t, ok)
	require.NoError(t, ctx.Err())

	ctx, cancel = withTimeout(time.Minute)
	defer cancel()
	_, ok = ctx.Deadline()
	require.True(t, ok)
	require.NoError(t, ctx.Err())
}
