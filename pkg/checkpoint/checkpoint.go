package checkpoint

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"datedreader/pkg/config"
)

// Entry records how far a template's files have been read: the day of the
// file last read into and the number of bytes already consumed from it.
type Entry struct {
	Date   Date  `json:"date"`
	Offset int64 `json:"offset"`
}

// Table maps a file-name template to its checkpoint entry
type Table map[string]Entry

// NewTable returns an empty table
func NewTable() Table {
	return make(Table)
}

// Get returns the entry stored for template
func (t Table) Get(template string) (Entry, bool) {
	e, ok := t[template]
	return e, ok
}

// Set stores e under template, replacing any prior entry
func (t Table) Set(template string, e Entry) {
	t[template] = e
}

// Delete removes the entry for template
func (t Table) Delete(template string) {
	delete(t, template)
}

// Templates returns the table's keys in sorted order
func (t Table) Templates() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy that shares nothing with t
func (t Table) Clone() Table {
	c := make(Table, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// validate rejects entries that cannot be real file positions
func (t Table) validate() error {
	for tmpl, e := range t {
		if e.Date.IsZero() {
			return fmt.Errorf("entry %q has no date", tmpl)
		}
		if e.Offset < 0 {
			return fmt.Errorf("entry %q has negative offset %d", tmpl, e.Offset)
		}
	}
	return nil
}

// Store persists a checkpoint table as a single object.
//
// Load returns an empty table when the object does not exist and a
// corrupt-store error when it exists but cannot be decoded. Save overwrites
// the whole object with the given table.
type Store interface {
	Load() (Table, error)
	Save(Table) error
	Close() error
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MinioStore)(nil)
)

// Open builds the store selected by cfg.Driver
func Open(cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverJSON, "":
		path := cfg.Path
		if path == "" {
			p, err := DefaultPath("default")
			if err != nil {
				return nil, err
			}
			path = p
		}
		return NewFileStore(path), nil
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" {
			dataDir, err := getDataDirectory()
			if err != nil {
				return nil, fmt.Errorf("failed to get data directory: %w", err)
			}
			path = filepath.Join(dataDir, "checkpoints.db")
		}
		return NewSQLiteStore(path)
	case config.DriverMinio:
		return NewMinioStoreFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
