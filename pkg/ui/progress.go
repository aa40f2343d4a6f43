package ui

import (
	"fmt"
	"sort"
	"time"
)

// StatusTracker keeps per-template counts for the summary printed after a read
type StatusTracker struct {
	StartTime time.Time
	templates map[string]*TemplateStatus
}

// TemplateStatus is what one template's read produced
type TemplateStatus struct {
	Lines  int
	Files  int
	Failed bool
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		StartTime: time.Now(),
		templates: make(map[string]*TemplateStatus),
	}
}

// Record stores the outcome of reading template
func (st *StatusTracker) Record(template string, lines, files int, err error) {
	st.templates[template] = &TemplateStatus{Lines: lines, Files: files, Failed: err != nil}
}

// Get returns the status recorded for template
func (st *StatusTracker) Get(template string) (TemplateStatus, bool) {
	s, ok := st.templates[template]
	if !ok {
		return TemplateStatus{}, false
	}
	return *s, true
}

// TotalLines sums lines across all templates
func (st *StatusTracker) TotalLines() int {
	total := 0
	for _, s := range st.templates {
		total += s.Lines
	}
	return total
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// PrintSummary prints one line per template followed by the totals
func (st *StatusTracker) PrintSummary() {
	names := make([]string, 0, len(st.templates))
	for name := range st.templates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := st.templates[name]
		status := Green("[OK]")
		if s.Failed {
			status = Red("[FAILED]")
		}
		emit(false, fmt.Sprintf("%s %s %s", status, name,
			Dim(fmt.Sprintf("%d lines from %d files", s.Lines, s.Files))))
	}
	emit(false, fmt.Sprintf("%s %d lines in %s", Cyan("[TOTAL]"),
		st.TotalLines(), st.GetElapsedTime().Round(time.Millisecond)))
}
