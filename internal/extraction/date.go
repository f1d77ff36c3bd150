package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	isoDate = "2006-01-02"

	dateScanLines          = 10
	dateBaseConfidence     = 0.8
	dateLineDecay          = 0.03
	dateFallbackConfidence = 0.1
	datePlausibleYears     = 2
)

type dateForm int

const (
	formMonthDayYear dateForm = iota
	formYearMonthDay
	formText
)

type datePattern struct {
	re   *regexp.Regexp
	form dateForm
}

const monthNames = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var datePatterns = []datePattern{
	{regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`), formMonthDayYear},
	{regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4}|\d{2})\b`), formMonthDayYear},
	{regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), formYearMonthDay},
	{regexp.MustCompile(`(?i)\b(` + monthNames + `\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4})\b`), formText},
	{regexp.MustCompile(`(?i)\b(\d{1,2}(?:st|nd|rd|th)?\s+` + monthNames + `\.?,?\s+\d{4})\b`), formText},
}

// textDateLayouts are tried before handing a textual date to dateparse
var textDateLayouts = []string{
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var (
	ordinalSuffix = regexp.MustCompile(`(?i)(\d)(?:st|nd|rd|th)\b`)
	septAbbrev    = regexp.MustCompile(`(?i)\bsept\b`)
	datePunct     = strings.NewReplacer(",", " ", ".", " ")
)

func extractDate(lines []string, now time.Time) Field[time.Time] {
	today := civilDate(now.Year(), now.Month(), now.Day())
	earliest := today.AddDate(-datePlausibleYears, 0, 0)

	for i, line := range lines {
		if i >= dateScanLines {
			break
		}
		for _, p := range datePatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			// only the first matching pattern on a line is considered
			if d, ok := parseDateMatch(p.form, m); ok && !d.Before(earliest) && !d.After(today) {
				return found(d, dateBaseConfidence-dateLineDecay*float64(i))
			}
			break
		}
	}

	return found(today, dateFallbackConfidence)
}

func parseDateMatch(form dateForm, m []string) (time.Time, bool) {
	switch form {
	case formMonthDayYear:
		return numericDate(m[3], m[1], m[2])
	case formYearMonthDay:
		return numericDate(m[1], m[2], m[3])
	default:
		return ParseTextDate(m[1])
	}
}

func numericDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	if len(year) == 2 {
		y += 2000
	}
	mo, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	return validDate(y, mo, d)
}

// validDate rejects values that time.Date would silently normalize, like 02/30
func validDate(y, m, d int) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := civilDate(y, time.Month(m), d)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// ParseTextDate parses spelled-out dates such as "Aug 7, 2024" or "7th August 2024"
func ParseTextDate(s string) (time.Time, bool) {
	clean := ordinalSuffix.ReplaceAllString(s, "$1")
	// Go layouts only know the three letter abbreviation
	clean = septAbbrev.ReplaceAllString(clean, "Sep")
	clean = strings.Join(strings.Fields(datePunct.Replace(clean)), " ")

	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return civilDate(t.Year(), t.Month(), t.Day()), true
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return civilDate(t.Year(), t.Month(), t.Day()), true
}

// ParseISODate parses a strict YYYY-MM-DD calendar date
func ParseISODate(s string) (time.Time, bool) {
	if len(s) != len(isoDate) {
		return time.Time{}, false
	}
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func civilDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
