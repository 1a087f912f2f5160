package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsEmptyDSN(t *testing.T) {
	_, err := Connect(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyDSN)
}

func TestConnectOptional_FallsBackWithoutDSN(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	db, cleanup := ConnectOptional(context.Background(), "", logger)

	require.Nil(t, db)
	cleanup()
	assert.Contains(t, buf.String(), "POSTGRES_DSN not set")
}

func TestSlogWriterFormatsGormMessages(t *testing.T) {
	var buf bytes.Buffer
	w := slogWriter{logger: slog.New(slog.NewTextHandler(&buf, nil))}

	w.Printf("%s [%.3fms] %s\n", "slow sql", 250.0, "SELECT 1")

	assert.Contains(t, buf.String(), "slow sql [250.000ms] SELECT 1")
}
