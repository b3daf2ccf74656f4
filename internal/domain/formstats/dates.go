package formstats

import (
	"regexp"
	"time"
)

const dateLayout = "2006-01-02"

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func parseDate(s string) (time.Time, bool) {
	if !isoDateRe.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// addDays opera sobre fechas de calendario (sin zona), así que no hay saltos de DST.
func addDays(day string, n int) string {
	t, ok := parseDate(day)
	if !ok {
		return day
	}
	return t.AddDate(0, 0, n).Format(dateLayout)
}

// daysBetween devuelve to-from en días (from==to => 0).
func daysBetween(from, to string) int {
	a, _ := parseDate(from)
	b, _ := parseDate(to)
	return int(b.Sub(a).Hours() / 24)
}

// EnumerateDays lista todas las fechas de [from, to], inclusive.
func EnumerateDays(from, to string) []string {
	a, ok1 := parseDate(from)
	b, ok2 := parseDate(to)
	if !ok1 || !ok2 || a.After(b) {
		return []string{}
	}
	out := make([]string, 0, daysBetween(from, to)+1)
	for t := a; !t.After(b); t = t.AddDate(0, 0, 1) {
		out = append(out, t.Format(dateLayout))
	}
	return out
}

// CivilDay convierte un instante a fecha de calendario en loc.
func CivilDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

// DefaultRange reproduce el rango por defecto del portal: últimos 30 días hasta hoy.
func DefaultRange(now time.Time, loc *time.Location) (from, to string) {
	to = CivilDay(now, loc)
	return addDays(to, -30), to
}
