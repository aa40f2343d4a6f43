package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	errs "datedreader/pkg/errors"
	"datedreader/pkg/logger"
)

// documentVersion is the only JSON layout FileStore and MinioStore understand
const documentVersion = 1

// document is the persisted JSON form of a Table
type document struct {
	Version     int       `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
	Checkpoints Table     `json:"checkpoints"`
}

// encodeDocument renders t as an indented JSON document
func encodeDocument(w io.Writer, t Table) error {
	doc := document{
		Version:     documentVersion,
		UpdatedAt:   time.Now().UTC(),
		Checkpoints: t,
	}
	if doc.Checkpoints == nil {
		doc.Checkpoints = NewTable()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// decodeDocument parses a JSON document; name is only used in errors
func decodeDocument(r io.Reader, name string) (Table, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errs.CorruptStore(name, err)
	}
	if doc.Version != documentVersion {
		return nil, errs.CorruptStore(name, fmt.Errorf("unsupported version %d", doc.Version))
	}
	if doc.Checkpoints == nil {
		doc.Checkpoints = NewTable()
	}
	if err := doc.Checkpoints.validate(); err != nil {
		return nil, errs.CorruptStore(name, err)
	}
	return doc.Checkpoints, nil
}

// FileStore keeps the checkpoint table in a JSON file
type FileStore struct {
	path   string
	logger logger.Logger
}

// NewFileStore creates a store backed by the file at path. The file is not
// touched until Load or Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.GetLogger(),
	}
}

// SetLogger replaces the store's logger
func (s *FileStore) SetLogger(l logger.Logger) {
	s.logger = l
}

// Path returns the checkpoint file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the table from disk; a missing file yields an empty table
func (s *FileStore) Load() (Table, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.DebugWithFields("No checkpoint file, starting empty", map[string]interface{}{
				"path": s.path,
			})
			return NewTable(), nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	table, err := decodeDocument(file, s.path)
	if err != nil {
		return nil, err
	}

	s.logger.DebugWithFields("Checkpoint file loaded", map[string]interface{}{
		"path":    s.path,
		"entries": len(table),
	})

	return table, nil
}

// Save writes the table to a temporary file and renames it over the target
func (s *FileStore) Save(t Table) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	if err := encodeDocument(file, t); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.DebugWithFields("Checkpoint file saved", map[string]interface{}{
		"path":    s.path,
		"entries": len(t),
	})

	return nil
}

// Close is a no-op; FileStore holds no open handles
func (s *FileStore) Close() error {
	return nil
}

// Delete removes the checkpoint file
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	s.logger.InfoWithFields("Checkpoint file deleted", map[string]interface{}{"path": s.path})
	return nil
}

// Exists checks if the checkpoint file exists
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Backup copies the checkpoint file to <path>.backup and returns that path.
// It does nothing when there is no checkpoint file yet.
func (s *FileStore) Backup() (string, error) {
	if !s.Exists() {
		return "", nil
	}

	backupPath := s.path + ".backup"

	src, err := os.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to open checkpoint for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy checkpoint to backup: %w", err)
	}

	s.logger.DebugWithFields("Checkpoint backed up", map[string]interface{}{"path": backupPath})
	return backupPath, nil
}

// DefaultPath returns <data dir>/checkpoints/<name>.checkpoint.json
func DefaultPath(name string) (string, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return "", fmt.Errorf("failed to get data directory: %w", err)
	}
	return filepath.Join(dataDir, "checkpoints", fmt.Sprintf("%s.checkpoint.json", name)), nil
}

// getDataDirectory returns the appropriate data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "datedreader")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "datedreader")
	default:
		// Use XDG_DATA_HOME if set, otherwise ~/.local/share
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "datedreader")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "datedreader")
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}
