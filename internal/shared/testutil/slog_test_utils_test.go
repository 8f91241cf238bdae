package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		if got := handler.Count(); got != 2 {
			t.Errorf("Expected 2 records, got %d", got)
		}
		if !handler.ContainsMessage("test message") {
			t.Error("Expected to find 'test message'")
		}
		if !handler.ContainsAttr("key", "value") {
			t.Error("Expected to find attribute key=value")
		}
		if !handler.ContainsAttr("code", 500) {
			t.Error("Expected int attribute to match")
		}
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")

		if got := len(handler.GetRecordsByLevel(slog.LevelInfo)); got != 1 {
			t.Errorf("Expected 1 info record, got %d", got)
		}
		AssertLogContains(t, handler, slog.LevelWarn, "warn")
		AssertNoErrors(t, handler)
	})

	t.Run("derived loggers share records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("component", "loader").WithGroup("stats").Info("loaded", "rows", 3)

		AssertLogAttr(t, handler, "component", "loader")
		AssertLogAttr(t, handler, "stats.rows", 3)

		handler.Clear()
		if handler.Count() != 0 {
			t.Error("Expected no records after Clear")
		}
	})
}

func TestGeneratePanelRecords(t *testing.T) {
	spec := DefaultPanelSpec()
	records := GeneratePanelRecords(spec)

	if want := 1 + len(spec.Regions)*spec.Years; len(records) != want {
		t.Fatalf("Expected %d records, got %d", want, len(records))
	}
	for i, row := range records {
		if len(row) != len(PanelHeader) {
			t.Fatalf("row %d has %d fields", i, len(row))
		}
	}
	if PanelCSV(spec) != PanelCSV(spec) {
		t.Error("Expected deterministic output")
	}
	if !strings.HasPrefix(PanelCSV(spec), "region,year,mortality") {
		t.Error("Expected header first")
	}
}
