package numerator

import (
	"fmt"
	"time"
)

// FiscalYearLabel returns the April-to-March financial year containing t,
// formatted "YYYY-YY" (e.g. 2025-26). The date is taken in t's own location.
func FiscalYearLabel(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// Prefix builds the "<ORG>/<FY>/" scope shared by all numbers of one year.
func Prefix(org, fiscalYear string) string {
	return org + "/" + fiscalYear + "/"
}
