package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedHandlerCapturesRecords(t *testing.T) {
	logger, handler := NewTestLogger(nil)

	logger.Info("archive extracted", slog.String("archive", "cnsfails202401a.zip"), slog.Int("members", 1))
	logger.Warn("source yielded no usable rows")
	logger.Error("store merge failed")

	records := handler.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "archive extracted", records[0].Message)
	assert.Equal(t, "cnsfails202401a.zip", records[0].Attrs["archive"])
	assert.Equal(t, int64(1), records[0].Attrs["members"])

	assert.Len(t, handler.RecordsAtLevel(slog.LevelWarn), 1)
	assert.True(t, handler.ContainsMessage("merge failed"))
	assert.False(t, handler.ContainsMessage("never logged"))
}

func TestBufferedHandlerSharesBufferWithDerivedLoggers(t *testing.T) {
	logger, handler := NewTestLogger(nil)

	logger.With(slog.String("component", "merge-writer")).Info("store rewritten")

	require.True(t, handler.ContainsMessage("store rewritten"),
		"records from With-derived loggers must land in the same buffer")
}

func TestAssertHelpers(t *testing.T) {
	logger, handler := NewTestLogger(nil)
	logger.Info("period aggregates written")

	AssertLogContains(t, handler, slog.LevelInfo, "aggregates written")
	AssertNoErrors(t, handler)
}
