package reader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"datedreader/pkg/checkpoint"
	"datedreader/pkg/logger"

	"github.com/stretchr/testify/require"
)

// memStore is an in-memory checkpoint.Store that counts calls
type memStore struct {
	table   checkpoint.Table
	loadErr error
	saveErr error
	loads   int
	saves   int
}

func (m *memStore) Load() (checkpoint.Table, error) {
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.table == nil {
		return checkpoint.NewTable(), nil
	}
	return m.table.Clone(), nil
}

func (m *memStore) Save(t checkpoint.Table) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.table = t.Clone()
	return nil
}

func (m *memStore) Close() error { return nil }

// fakeClock is a settable "now"
type fakeClock struct {
	now time.Time
}

func newFakeClock(day string) *fakeClock {
	d := checkpoint.MustParseDate(day)
	return &fakeClock{now: d.Time(time.UTC).Add(12 * time.Hour)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(days int) {
	c.now = c.now.AddDate(0, 0, days)
}

// logDir holds one file per day named app-YYYY-MM-DD.log
type logDir struct {
	t   *testing.T
	dir string
}

const flatFormat = "%Y-%m-%d"

func newLogDir(t *testing.T) *logDir {
	return &logDir{t: t, dir: t.TempDir()}
}

func (d *logDir) template() string {
	return filepath.Join(d.dir, "app-{date}.log")
}

func (d *logDir) path(day string) string {
	return Render(d.template(), flatFormat, checkpoint.MustParseDate(day))
}

func (d *logDir) write(day, content string) {
	d.t.Helper()
	require.NoError(d.t, os.WriteFile(d.path(day), []byte(content), 0644))
}

func (d *logDir) append(day, content string) {
	d.t.Helper()
	f, err := os.OpenFile(d.path(day), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	require.NoError(d.t, err)
	_, err = f.WriteString(content)
	require.NoError(d.t, err)
	require.NoError(d.t, f.Close())
}

func openTestSession(t *testing.T, store checkpoint.Store, clock *fakeClock, opts ...Option) *Session {
	t.Helper()
	all := append([]Option{
		WithClock(clock.Now),
		WithLocation(time.UTC),
		WithLogger(logger.NewNopLogger()),
	}, opts...)
	s, err := Open(store, all...)
	require.NoError(t, err)
	return s
}

// collect drains lines and returns what was yielded plus the final error
func collect(t *testing.T, lines *Lines) ([]string, error) {
	t.Helper()
	var got []string
	for lines.Next() {
		got = append(got, lines.Text())
	}
	return got, lines.Err()
}

func datePtr(s string) *checkpoint.Date {
	d := checkpoint.MustParseDate(s)
	return &d
}
