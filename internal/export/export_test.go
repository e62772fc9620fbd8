package export

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database/memory"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l := ledger.New(memory.NewBackend(), ledger.WithLocation(time.UTC))
	ctx := context.Background()
	for _, r := range []struct {
		id, name string
		ts       time.Time
	}{
		{"2", "Bob, Jr.", time.Date(2026, 5, 4, 9, 15, 0, 0, time.UTC)},
		{"1", "Ana", time.Date(2026, 5, 4, 8, 5, 30, 0, time.UTC)},
	} {
		ok, err := l.Record(ctx, r.id, r.name, r.ts)
		require.NoError(t, err)
		require.True(t, ok)
	}
	return l
}

func TestWriteCSV(t *testing.T) {
	l := seededLedger(t)
	records, err := l.RecordsFor(context.Background(), "2026-05-04")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	want := "ID,Name,Time,Date\n" +
		"1,Ana,08:05:30,2026-05-04\n" +
		"2,\"Bob, Jr.\",09:15:00,2026-05-04\n"
	assert.Equal(t, want, buf.String())
}

func TestExportDay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	e := NewExporter(seededLedger(t), dir)

	path, err := e.ExportDay(context.Background(), "2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "attendance_2026-05-04.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1,Ana,08:05:30,2026-05-04")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestExportDay_NoRecords(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	e := NewExporter(seededLedger(t), dir)

	path, err := e.ExportDay(context.Background(), "2026-05-05")
	require.NoError(t, err)
	assert.Empty(t, path)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestExportDay_InvalidDate(t *testing.T) {
	e := NewExporter(seededLedger(t), t.TempDir())
	_, err := e.ExportDay(context.Background(), "yesterday")
	assert.ErrorIs(t, err, ledger.ErrInvalidDate)
}

func TestScheduler(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(seededLedger(t), dir)
	s := NewScheduler(e, "55 23 * * *", log.New(io.Discard, "", 0))
	s.now = func() time.Time { return time.Date(2026, 5, 4, 23, 55, 0, 0, time.UTC) }

	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "double start")
	defer s.Stop(time.Second)

	s.Run(context.Background())
	ran, err := s.LastRun()
	require.NoError(t, err)
	assert.Equal(t, 2026, ran.Year())
	assert.FileExists(t, filepath.Join(dir, "attendance_2026-05-04.csv"))
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(NewExporter(seededLedger(t), t.TempDir()), "every day", log.New(io.Discard, "", 0))
	assert.Error(t, s.Start())
}
