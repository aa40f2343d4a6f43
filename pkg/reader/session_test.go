package reader

import (
	"errors"
	"testing"
	"time"

	"datedreader/pkg/checkpoint"
	errs "datedreader/pkg/errors"
	"datedreader/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLoadsOnceAndCloseSavesOnce(t *testing.T) {
	store := &memStore{}
	s := openTestSession(t, store, newFakeClock("2024-01-03"))
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, 0, store.saves)
	assert.False(t, s.Closed())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, s.Closed())
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, 1, store.saves)
}

func TestOpenRejectsNilStore(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestOpenPropagatesCorruptStore(t *testing.T) {
	store := &memStore{loadErr: errs.CorruptStore("cp.json", errors.New("bad json"))}

	_, err := Open(store, WithLogger(logger.NewNopLogger()))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCorruptStore)

	called := false
	err = WithSession(store, func(*Session) error {
		called = true
		return nil
	}, WithLogger(logger.NewNopLogger()))
	assert.ErrorIs(t, err, errs.ErrCorruptStore)
	assert.False(t, called)
	assert.Equal(t, 0, store.saves)
}

func TestEmptySessionRoundTrip(t *testing.T) {
	store := &memStore{}
	err := WithSession(store, func(*Session) error { return nil },
		WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)

	require.NotNil(t, store.table)
	assert.Empty(t, store.table)
}

func TestWithSessionSavesOnError(t *testing.T) {
	logs := newLogDir(t)
	logs.write("2024-01-03", "x\n")
	clock := newFakeClock("2024-01-03")
	store := &memStore{}
	boom := errors.New("boom")

	err := WithSession(store, func(s *Session) error {
		lines, err := s.ReadDatedFiles(logs.template(), ReadOptions{DateFormat: flatFormat})
		if err != nil {
			return err
		}
		for lines.Next() {
		}
		return boom
	}, WithClock(clock.Now), WithLocation(time.UTC), WithLogger(logger.NewNopLogger()))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.saves)
	entry, ok := store.table.Get(logs.template())
	require.True(t, ok)
	assert.Equal(t, int64(2), entry.Offset)
}

func TestWithSessionSavesOnPanic(t *testing.T) {
	store := &memStore{table: checkpoint.Table{
		"a-{date}": {Date: checkpoint.MustParseDate("2024-01-01"), Offset: 4},
	}}

	assert.Panics(t, func() {
		_ = WithSession(store, func(*Session) error {
			panic("kaboom")
		}, WithLogger(logger.NewNopLogger()))
	})
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.table, 1)
}

func TestWithSessionJoinsCloseError(t *testing.T) {
	saveErr := errors.New("disk full")
	boom := errors.New("boom")
	store := &memStore{saveErr: saveErr}

	err := WithSession(store, func(*Session) error { return boom },
		WithLogger(logger.NewNopLogger()))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, saveErr)

	err = WithSession(store, func(*Session) error { return nil },
		WithLogger(logger.NewNopLogger()))
	assert.ErrorIs(t, err, saveErr)
}

func TestCloseErrorStillMarksClosed(t *testing.T) {
	store := &memStore{saveErr: errors.New("read-only")}
	s := openTestSession(t, store, newFakeClock("2024-01-03"))

	assert.Error(t, s.Close())
	assert.True(t, s.Closed())
	assert.NoError(t, s.Close(), "only the first close writes")
	assert.Equal(t, 1, store.saves)
}

func TestReadOnClosedSession(t *testing.T) {
	logs := newLogDir(t)
	s := openTestSession(t, &memStore{}, newFakeClock("2024-01-03"))
	require.NoError(t, s.Close())

	_, err := s.ReadDatedFiles(logs.template(), ReadOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSessionClosed)
	assert.Equal(t, errs.ErrorTypeSessionClosed, errs.TypeOf(err))

	// Template without a placeholder stays a no-op even after close
	lines, err := s.ReadDatedFiles("/var/log/static.log", ReadOptions{})
	require.NoError(t, err)
	assert.False(t, lines.Next())
}

func TestReadFinishingAfterCloseIsDropped(t *testing.T) {
	logs := newLogDir(t)
	logs.write("2024-01-03", "a\nb\n")
	store := &memStore{}
	s := openTestSession(t, store, newFakeClock("2024-01-03"))

	lines, err := s.ReadDatedFiles(logs.template(), ReadOptions{DateFormat: flatFormat})
	require.NoError(t, err)
	require.True(t, lines.Next())
	require.NoError(t, s.Close())

	_, err = collect(t, lines)
	require.NoError(t, err)
	assert.Empty(t, store.table)
	_, ok := s.Checkpoints().Get(logs.template())
	assert.False(t, ok)
}

func TestTemplateWithoutPlaceholder(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		tl := logger.NewTestLogger()
		store := &memStore{}
		s := openTestSession(t, store, newFakeClock("2024-01-03"), WithLogger(tl))

		lines, err := s.ReadDatedFiles("/var/log/static.log", ReadOptions{})
		require.NoError(t, err)
		got, err := collect(t, lines)
		require.NoError(t, err)
		assert.Empty(t, got)

		assert.Empty(t, s.Checkpoints())
		assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	})

	t.Run("strict", func(t *testing.T) {
		s := openTestSession(t, &memStore{}, newFakeClock("2024-01-03"), WithStrictTemplates(true))

		lines, err := s.ReadDatedFiles("/var/log/static.log", ReadOptions{})
		assert.Nil(t, lines)
		assert.ErrorIs(t, err, errs.ErrMalformedTemplate)
		assert.Contains(t, err.Error(), "/var/log/static.log")
	})
}

func TestCheckpointsReturnsCopy(t *testing.T) {
	store := &memStore{table: checkpoint.Table{
		"a-{date}": {Date: checkpoint.MustParseDate("2024-01-01"), Offset: 1},
	}}
	s := openTestSession(t, store, newFakeClock("2024-01-03"))

	cp := s.Checkpoints()
	cp.Delete("a-{date}")

	_, ok := s.Checkpoints().Get("a-{date}")
	assert.True(t, ok)
}

func TestTodayUsesLocation(t *testing.T) {
	clock := newFakeClock("2024-01-03")
	// noon UTC is already the next day at UTC+14
	kiritimati := time.FixedZone("LINT", 14*60*60)

	s := openTestSession(t, &memStore{}, clock, WithLocation(kiritimati))
	assert.Equal(t, checkpoint.MustParseDate("2024-01-04"), s.Today())
}

func TestZeroSessionBehavesClosed(t *testing.T) {
	var s Session
	assert.True(t, s.Closed())
	assert.NoError(t, s.Close())
	assert.Empty(t, s.Checkpoints())
	assert.False(t, s.Today().IsZero())

	lines, err := s.ReadDatedFiles("/var/log/{date}.log", ReadOptions{})
	assert.Nil(t, lines)
	assert.ErrorIs(t, err, errs.ErrSessionClosed)

	lines, err = s.ReadDatedFiles("/var/log/static.log", ReadOptions{})
	require.NoError(t, err)
	assert.False(t, lines.Next())
}
