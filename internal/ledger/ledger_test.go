package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/kozaktomas/face-attendance/internal/database/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_SameDayOnce(t *testing.T) {
	l := New(memory.NewBackend(), WithLocation(time.UTC))
	ctx := context.Background()
	morning := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	first, err := l.Record(ctx, "1", "Ana", morning)
	require.NoError(t, err)
	second, err := l.Record(ctx, "1", "Ana", morning.Add(4*time.Hour))
	require.NoError(t, err)
	third, err := l.Record(ctx, "1", "Ana", morning.Add(15*time.Hour))
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.False(t, third)

	records, err := l.RecordsFor(ctx, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, morning, records[0].Timestamp)
	assert.NotEmpty(t, records[0].RecordID)
}

func TestRecord_DifferentDays(t *testing.T) {
	l := New(memory.NewBackend(), WithLocation(time.UTC))
	ctx := context.Background()

	ok, err := l.Record(ctx, "1", "Ana", time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Record(ctx, "1", "Ana", time.Date(2026, 3, 3, 0, 1, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)

	has, err := l.HasRecorded(ctx, "1", "2026-03-03")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = l.HasRecorded(ctx, "2", "2026-03-03")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestHasRecorded_TrimsID(t *testing.T) {
	l := New(memory.NewBackend(), WithLocation(time.UTC))
	ctx := context.Background()

	ok, err := l.Record(ctx, " 1 ", " Ana ", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)

	for _, id := range []string{"1", " 1 ", "\t1\n"} {
		has, err := l.HasRecorded(ctx, id, "2026-03-02")
		require.NoError(t, err)
		assert.True(t, has, "id %q", id)
	}
}

func TestDateOf_UsesLocation(t *testing.T) {
	prague, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)
	l := New(memory.NewBackend(), WithLocation(prague))

	// 23:30 UTC is already the next day in Prague.
	ts := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-03", l.DateOf(ts))
}

func TestRecordsFor_OrderedByTimestamp(t *testing.T) {
	l := New(memory.NewBackend(), WithLocation(time.UTC))
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	for _, r := range []struct {
		id     string
		offset time.Duration
	}{
		{"3", 3 * time.Minute},
		{"1", time.Minute},
		{"2", 2 * time.Minute},
	} {
		ok, err := l.Record(ctx, r.id, "P"+r.id, base.Add(r.offset))
		require.NoError(t, err)
		require.True(t, ok)
	}

	records, err := l.RecordsFor(ctx, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{records[0].ID, records[1].ID, records[2].ID})

	empty, err := l.RecordsFor(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestToday(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	l := New(memory.NewBackend(), WithLocation(time.UTC), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := l.Record(ctx, "1", "Ana", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = l.Record(ctx, "1", "Ana", now.Add(-24*time.Hour))
	require.NoError(t, err)

	today, err := l.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "2026-03-02", today[0].Date)

	dates, err := l.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-01", "2026-03-02"}, dates)
}

func TestRecord_Concurrent(t *testing.T) {
	l := New(memory.NewBackend(), WithLocation(time.UTC))
	ctx := context.Background()
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Record(ctx, "1", "Ana", ts.Add(time.Duration(i)*time.Second))
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestValidation(t *testing.T) {
	l := New(memory.NewBackend())
	ctx := context.Background()

	_, err := l.Record(ctx, "", "Ana", time.Now())
	assert.ErrorIs(t, err, ErrInvalidRecord)
	_, err = l.Record(ctx, "1", " ", time.Now())
	assert.ErrorIs(t, err, ErrInvalidRecord)

	for _, date := range []string{"", "2026-3-2", "02.03.2026", "2026-02-30"} {
		_, err = l.RecordsFor(ctx, date)
		assert.ErrorIs(t, err, ErrInvalidDate, date)
		_, err = l.HasRecorded(ctx, "1", date)
		assert.ErrorIs(t, err, ErrInvalidDate, date)
	}
}

func TestRepositoryFailures(t *testing.T) {
	repo := memory.NewBackend()
	l := New(repo, WithLocation(time.UTC))
	ctx := context.Background()
	boom := errors.New("database is locked")

	repo.InsertAttendanceError = boom
	ok, err := l.Record(ctx, "1", "Ana", time.Now())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
	assert.ErrorIs(t, err, boom)

	repo.InsertAttendanceError = nil
	repo.HasAttendanceError = boom
	_, err = l.Record(ctx, "1", "Ana", time.Now())
	assert.ErrorIs(t, err, ErrLedgerUnavailable)

	repo.ListAttendanceError = boom
	_, err = l.RecordsFor(ctx, "2026-03-02")
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
	_, err = l.Dates(ctx)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
}
