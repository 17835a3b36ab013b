package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTextLogger_VerboseEmitsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, true)

	log.Debug(context.Background(), "probe", "k", "v")

	require.Contains(t, buf.String(), "probe")
	require.Contains(t, buf.String(), "k=v")
}

func TestNewTextLogger_QuietSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, false)

	log.Info(context.Background(), "hidden")
	require.Empty(t, buf.String())

	log.Error(context.Background(), "shown")
	require.Contains(t, buf.String(), "shown")
}

func TestWith_AddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewTextLogger(&buf, true).With("user", "alice")

	log.Warn(context.Background(), "something odd")

	line := buf.String()
	if !strings.Contains(line, "user=alice") {
		t.Fatalf("expected persistent field in output, got %q", line)
	}
}
