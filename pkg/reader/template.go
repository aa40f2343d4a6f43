package reader

import (
	"strings"
	"time"

	"datedreader/pkg/checkpoint"

	"github.com/ncruces/go-strftime"
)

// Placeholder is replaced by the formatted date in a file-name template
const Placeholder = "{date}"

// DefaultDateFormat renders a date as year/month/day path segments
const DefaultDateFormat = "%Y/%m/%d"

// HasPlaceholder reports whether template contains {date}
func HasPlaceholder(template string) bool {
	return strings.Contains(template, Placeholder)
}

// Render returns the concrete path for day d: template with every {date}
// replaced by d formatted with the strftime pattern format.
func Render(template, format string, d checkpoint.Date) string {
	formatted := strftime.Format(format, d.Time(time.UTC))
	return strings.ReplaceAll(template, Placeholder, formatted)
}
