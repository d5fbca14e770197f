package blog

import (
	"fmt"
	"time"
)

// UnknownDate is shown for posts without a publication date.
const UnknownDate = "Data desconhecida"

var monthsPtBR = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// FormatDate renders t as "dd MMM yyyy" with Brazilian Portuguese month
// abbreviations, e.g. "25 mar 2021". A nil t yields UnknownDate. loc may be
// nil for UTC.
func FormatDate(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return UnknownDate
	}
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return fmt.Sprintf("%02d %s %d", lt.Day(), monthsPtBR[lt.Month()-1], lt.Year())
}
