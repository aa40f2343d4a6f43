package reader

import (
	"errors"
	"fmt"
	"time"

	"datedreader/pkg/checkpoint"
	errs "datedreader/pkg/errors"
	"datedreader/pkg/logger"
)

// Session holds the checkpoint table for its lifetime: loaded once by Open,
// persisted once by Close. It is not safe for concurrent use, and nothing
// stops two processes from sharing a store; the last Close wins.
//
// A Session not obtained from Open behaves as closed.
type Session struct {
	store  checkpoint.Store
	table  checkpoint.Table
	closed bool

	clock  func() time.Time
	loc    *time.Location
	strict bool
	logger logger.Logger
}

// Option configures a Session
type Option func(*Session)

// WithClock sets the source of the current time used to decide "today"
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the zone in which "today" is evaluated
func WithLocation(loc *time.Location) Option {
	return func(s *Session) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the session logger
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStrictTemplates makes ReadDatedFiles reject templates that have no
// {date} placeholder instead of returning an empty sequence.
func WithStrictTemplates(strict bool) Option {
	return func(s *Session) {
		s.strict = strict
	}
}

// Open loads the checkpoint table from store and starts a session. An absent
// store starts with an empty table; a corrupt one is returned as an error.
// The caller keeps ownership of store and must Close the session; see
// WithSession for the scoped form.
func Open(store checkpoint.Store, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, errors.New("checkpoint store cannot be nil")
	}

	s := &Session{
		store:  store,
		clock:  time.Now,
		loc:    time.Local,
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	table, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if table == nil {
		table = checkpoint.NewTable()
	}
	s.table = table

	s.logger.DebugWithFields("Session opened", map[string]interface{}{
		"entries": len(table),
	})

	return s, nil
}

// Close persists the in-memory table, overwriting the store's contents.
// Only the first call writes; later calls return nil.
func (s *Session) Close() error {
	if s.Closed() {
		return nil
	}
	s.closed = true

	if err := s.store.Save(s.table); err != nil {
		s.log().WithError(err).Error("Failed to persist checkpoints")
		return fmt.Errorf("close session: %w", err)
	}

	s.log().InfoWithFields("Checkpoints saved", map[string]interface{}{
		"entries": len(s.table),
	})
	return nil
}

// WithSession opens a session on store, runs fn and always closes the
// session, also when fn fails or panics. A close failure is joined with fn's
// error.
func WithSession(store checkpoint.Store, fn func(*Session) error, opts ...Option) (err error) {
	s, err := Open(store, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	return fn(s)
}

// Today returns the current calendar date in the session's location
func (s *Session) Today() checkpoint.Date {
	clock, loc := s.clock, s.loc
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return checkpoint.DateOf(clock().In(loc))
}

// Checkpoints returns a copy of the current in-memory table
func (s *Session) Checkpoints() checkpoint.Table {
	return s.table.Clone()
}

// Closed reports whether Close has been called
func (s *Session) Closed() bool {
	return s.closed || s.store == nil
}

func (s *Session) log() logger.Logger {
	if s.logger == nil {
		return logger.NewNopLogger()
	}
	return s.logger
}

// ReadOptions parameterise a single ReadDatedFiles call
type ReadOptions struct {
	// FromDate is where to start when there is no checkpoint or ForceDate is
	// set. Nil means today, evaluated at call time.
	FromDate *checkpoint.Date

	// DateFormat is the strftime pattern substituted for {date}.
	// Empty means DefaultDateFormat.
	DateFormat string

	// ForceDate ignores any stored checkpoint and starts at FromDate, offset 0.
	ForceDate bool
}

// ReadDatedFiles returns the lines of every file named by template from the
// resume point through today. See Lines for how the sequence advances.
//
// A template without a {date} placeholder yields an empty sequence, or
// a malformed-template error when the session is strict. On a closed session
// any other template returns a session-closed error.
func (s *Session) ReadDatedFiles(template string, opts ReadOptions) (*Lines, error) {
	log := s.log().WithField("template", template)

	if !HasPlaceholder(template) {
		if s.strict {
			return nil, errs.MalformedTemplate(template)
		}
		log.Warn("Template has no {date} placeholder, nothing to read")
		return emptyLines(), nil
	}

	if s.Closed() {
		return nil, errs.SessionClosed()
	}

	format := opts.DateFormat
	if format == "" {
		format = DefaultDateFormat
	}

	var start checkpoint.Entry
	if entry, ok := s.table.Get(template); ok && !opts.ForceDate {
		start = entry
		log.DebugWithFields("Resuming from checkpoint", map[string]interface{}{
			"date":   entry.Date.String(),
			"offset": entry.Offset,
		})
	} else {
		from := s.Today()
		if opts.FromDate != nil {
			from = *opts.FromDate
		}
		start = checkpoint.Entry{Date: from, Offset: 0}
		log.DebugWithFields("Starting without checkpoint", map[string]interface{}{
			"date":  from.String(),
			"force": opts.ForceDate,
		})
	}

	return newLines(s, template, format, start, log), nil
}

// record stores the position reached for template. Positions reached after
// the session closed are dropped, since they can no longer be persisted.
func (s *Session) record(template string, e checkpoint.Entry, log logger.Logger) {
	if s.Closed() {
		log.Warn("Session closed before read finished, checkpoint not recorded")
		return
	}
	s.table.Set(template, e)
	log.DebugWithFields("Checkpoint recorded", map[string]interface{}{
		"date":   e.Date.String(),
		"offset": e.Offset,
	})
}
