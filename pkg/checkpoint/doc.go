// Package checkpoint persists how far each dated-file template has been read.
//
// A Table maps a file-name template (for example "/var/log/app/{date}.log")
// to an Entry holding the calendar day of the file last read into and the
// byte offset reached in it. The table is stored as one object through the
// Store interface:
//   - FileStore: a JSON file, written via temp file, fsync and rename
//   - SQLiteStore: one row per template in a SQLite database
//   - MinioStore: a JSON object in an S3-compatible bucket
//
// Every backend loads an absent object as an empty table and reports data
// that exists but cannot be decoded as a corrupt-store error. Save always
// replaces the whole object. No locking is done between processes.
//
// JSON checkpoint files live in the platform data directory by default:
//   - Linux: ~/.local/share/datedreader/checkpoints/
//   - macOS: ~/Library/Application Support/datedreader/checkpoints/
//   - Windows: %APPDATA%/datedreader/checkpoints/
package checkpoint
