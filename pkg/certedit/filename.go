package certedit

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

const untitledSubject = "Untitled"

// Filename builds "{SubjectName}_{DocumentType}_{YYYY-MM-DD}.pdf".
func Filename(subject string, d DocumentType, date time.Time) string {
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(subject), "_")
	if name == "" {
		name = untitledSubject
	}
	return fmt.Sprintf("%s_%s_%s.pdf", name, d.Title(), date.Format("2006-01-02"))
}
