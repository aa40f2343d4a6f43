package reader

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"datedreader/pkg/checkpoint"
	errs "datedreader/pkg/errors"
	"datedreader/pkg/logger"
)

// Lines is a lazy, forward-only sequence of lines read across a template's
// dated files. Use it like bufio.Scanner:
//
//	for lines.Next() {
//		process(lines.Text())
//	}
//	if err := lines.Err(); err != nil { ... }
//
// Days run from the resume date through today. The resume day's file is read
// from the stored offset and every later day's file from its start. Once the
// date passes today, the final (date, offset) is recorded in the session
// table. Calling Close before then abandons the read and records nothing.
//
// A last line with no terminator is yielded as it stands and its bytes are
// counted in the offset. If a writer later finishes that line, the remainder
// comes back as a separate line on the next read.
//
// At most one file is open at a time.
type Lines struct {
	session  *Session
	template string
	format   string
	log      logger.Logger

	// date and offset are the last position reached: the day of the file
	// last opened and the bytes consumed from it.
	date   checkpoint.Date
	offset int64

	cur  checkpoint.Date
	path string
	file *os.File
	rd   *bufio.Reader

	line  string
	err   error
	done  bool
	files int
	count int
}

func newLines(s *Session, template, format string, start checkpoint.Entry, log logger.Logger) *Lines {
	return &Lines{
		session:  s,
		template: template,
		format:   format,
		log:      log,
		date:     start.Date,
		offset:   start.Offset,
		cur:      start.Date,
	}
}

// emptyLines is a sequence that yields nothing
func emptyLines() *Lines {
	return &Lines{done: true}
}

// Next advances to the next line. It returns false when the sequence is
// exhausted, fails, or was closed.
func (l *Lines) Next() bool {
	for !l.done {
		if l.rd == nil {
			// today is re-evaluated per day so a read crossing midnight
			// picks up the new day
			if l.cur.After(l.session.Today()) {
				l.finish()
				return false
			}
			if err := l.openDay(); err != nil {
				l.fail(err)
				return false
			}
		}

		raw, err := l.rd.ReadString('\n')
		if err != nil && err != io.EOF {
			l.fail(fmt.Errorf("read %s: %w", l.path, err))
			return false
		}
		if len(raw) > 0 {
			l.offset += int64(len(raw))
			l.line = stripTerminator(raw)
			l.count++
			return true
		}

		// EOF on this day's file
		l.closeFile() //nolint:errcheck
		l.cur = l.cur.AddDays(1)
	}
	return false
}

// openDay opens the file for l.cur and positions it
func (l *Lines) openDay() error {
	path := Render(l.template, l.format, l.cur)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.log.WarnWithFields("Dated file missing", map[string]interface{}{
				"path": path,
				"date": l.cur.String(),
			})
			return errs.MissingFile(path, err)
		}
		return fmt.Errorf("open dated file: %w", err)
	}

	if l.cur != l.date {
		l.date = l.cur
		l.offset = 0
	} else if l.offset > 0 {
		if _, err := f.Seek(l.offset, io.SeekStart); err != nil {
			f.Close()
			return fmt.Errorf("seek %s to %d: %w", path, l.offset, err)
		}
	}

	l.path = path
	l.file = f
	l.rd = bufio.NewReader(f)
	l.files++

	l.log.DebugWithFields("Dated file opened", map[string]interface{}{
		"path":   path,
		"offset": l.offset,
	})
	return nil
}

// finish ends a fully consumed read and records the final position
func (l *Lines) finish() {
	l.done = true
	l.session.record(l.template, checkpoint.Entry{Date: l.date, Offset: l.offset}, l.log)
}

// fail ends the read with err. Progress already made in files that were
// opened is recorded, so a later session starts after the lines yielded here.
func (l *Lines) fail(err error) {
	l.closeFile() //nolint:errcheck
	l.err = err
	l.done = true
	if l.files > 0 {
		l.session.record(l.template, checkpoint.Entry{Date: l.date, Offset: l.offset}, l.log)
	}
}

func (l *Lines) closeFile() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.rd = nil
	return err
}

// Text returns the current line without its line terminator
func (l *Lines) Text() string {
	return l.line
}

// Err returns the error that stopped the sequence, if any
func (l *Lines) Err() error {
	return l.err
}

// Path returns the concrete file currently or most recently read
func (l *Lines) Path() string {
	return l.path
}

// Position returns the day and byte offset reached so far
func (l *Lines) Position() checkpoint.Entry {
	return checkpoint.Entry{Date: l.date, Offset: l.offset}
}

// Files returns how many dated files have been opened
func (l *Lines) Files() int {
	return l.files
}

// Count returns how many lines have been yielded
func (l *Lines) Count() int {
	return l.count
}

// Close releases the open file. Closing before the sequence is exhausted
// abandons the read without recording a checkpoint for it.
func (l *Lines) Close() error {
	if l.done {
		return nil
	}
	l.done = true
	return l.closeFile()
}

// All returns the sequence as an iterator for range-over-func. A failure is
// delivered as a final ("", err) pair. Breaking out of the loop closes the
// sequence.
func (l *Lines) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer l.Close()
		for l.Next() {
			if !yield(l.Text(), nil) {
				return
			}
		}
		if err := l.Err(); err != nil {
			yield("", err)
		}
	}
}

// stripTerminator removes a trailing \n or \r\n
func stripTerminator(raw string) string {
	s := strings.TrimSuffix(raw, "\n")
	return strings.TrimSuffix(s, "\r")
}
