package dialogue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"frontdesk/models"
)

var weekdayIndex = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var monthIndex = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sept": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const monthPattern = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	modifiedWeekdayRegex = regexp.MustCompile(`\b(this|next|coming)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	plainWeekdayRegex    = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	dayMonthRegex = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthPattern + `)(?:\s+(\d{4}))?\b`)
	monthDayRegex = regexp.MustCompile(`\b(` + monthPattern + `)\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?\b`)
	isoDateRegex  = regexp.MustCompile(`\b(20\d{2})[-/](\d{1,2})[-/](\d{1,2})\b`)
	slashDateRe   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)

	clockRegex      = regexp.MustCompile(`\b([01]?\d|2[0-3])\s*[:.]\s*([0-5]\d)\s*(am|pm|a\.m\.|p\.m\.)?\b`)
	hourMeridiemRe  = regexp.MustCompile(`\b([01]?\d)\s*(am|pm|a\.m\.|p\.m\.)\b`)
	bareHourAtRegex = regexp.MustCompile(`\bat\s+(\d{1,2})\b`)
	bareNumberRegex = regexp.MustCompile(`^\s*(\d{1,2})\s*$`)
)

// ExtractDateTime runs the layered date-time rules: relative weekday
// forms, absolute dates, bare relative terms, then an independent time
// component. Partial matches (date without time, or the reverse) are
// still Matched; the dialogue collects the missing half. Two
// non-equivalent date readings in one utterance come back Ambiguous.
func ExtractDateTime(text string, now time.Time) models.Extraction {
	t := strings.ToLower(normalizeText(text))
	if t == "" {
		return models.NotFound()
	}

	relDate, relOK := relativeDate(t, now)
	absDate, absOK := absoluteDate(t, now)

	var date string
	switch {
	case relOK && absOK && relDate != absDate:
		return models.Ambiguous(relDate, absDate)
	case relOK:
		date = relDate
	case absOK:
		date = absDate
	}

	clock := parseClock(t)

	if date == "" && clock == "" {
		return models.NotFound()
	}
	return models.MatchedDateTime(date, clock)
}

// relativeDate resolves "this/next/coming <weekday>", plain weekdays
// and today/tomorrow against the session's reference date. "next X"
// always lands in the following calendar week, even when X is today's
// weekday.
func relativeDate(t string, now time.Time) (string, bool) {
	base := now

	if m := modifiedWeekdayRegex.FindStringSubmatch(t); m != nil {
		mod, wd := m[1], weekdayIndex[m[2]]
		if mod == "this" {
			d := nextWeekday(base, wd, true)
			return isoDate(d), true
		}
		// next/coming: the target weekday within the following
		// Monday-based calendar week.
		daysToNextMonday := (8 - isoWeekday(base)) % 7
		if daysToNextMonday == 0 {
			daysToNextMonday = 7
		}
		nextMonday := base.AddDate(0, 0, daysToNextMonday)
		offset := int(wd) - int(time.Monday)
		if offset < 0 {
			offset += 7
		}
		return isoDate(nextMonday.AddDate(0, 0, offset)), true
	}

	if m := plainWeekdayRegex.FindStringSubmatch(t); m != nil {
		return isoDate(nextWeekday(base, weekdayIndex[m[1]], true)), true
	}

	if strings.Contains(t, "tomorrow") {
		return isoDate(base.AddDate(0, 0, 1)), true
	}
	if strings.Contains(t, "today") {
		return isoDate(base), true
	}

	return "", false
}

// isoWeekday maps Sunday=7 instead of 0.
func isoWeekday(d time.Time) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// nextWeekday returns the next occurrence of target on or after base.
func nextWeekday(base time.Time, target time.Weekday, includeToday bool) time.Time {
	delta := (int(target) - int(base.Weekday()) + 7) % 7
	if delta == 0 && !includeToday {
		delta = 7
	}
	return base.AddDate(0, 0, delta)
}

// absoluteDate recognizes "15 September", "Sep 15 2026", "2026-09-15"
// and "15/9" (day-first). Dates without a year that already passed
// roll to the next year.
func absoluteDate(t string, now time.Time) (string, bool) {
	if m := isoDateRegex.FindStringSubmatch(t); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if validCivil(y, mo, d) {
			return fmt.Sprintf("%04d-%02d-%02d", y, mo, d), true
		}
	}

	if m := dayMonthRegex.FindStringSubmatch(t); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo := monthIndex[m[2]]
		return buildDate(d, mo, m[3], now)
	}
	if m := monthDayRegex.FindStringSubmatch(t); m != nil {
		mo := monthIndex[m[1]]
		d, _ := strconv.Atoi(m[2])
		return buildDate(d, mo, m[3], now)
	}

	if m := slashDateRe.FindStringSubmatch(t); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		year := m[3]
		if mo >= 1 && mo <= 12 {
			return buildDate(d, time.Month(mo), year, now)
		}
	}

	return "", false
}

func buildDate(day int, month time.Month, yearStr string, now time.Time) (string, bool) {
	year := now.Year()
	explicitYear := false
	if yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err == nil {
			if y < 100 {
				y += 2000
			}
			year = y
			explicitYear = true
		}
	}
	if !validCivil(year, int(month), day) {
		return "", false
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	if !explicitYear && d.Before(startOfDay(now)) {
		d = d.AddDate(1, 0, 0)
	}
	return isoDate(d), true
}

func validCivil(y, m, d int) bool {
	if m < 1 || m > 12 || d < 1 {
		return false
	}
	last := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
	return d <= last
}

func startOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

func isoDate(d time.Time) string {
	return d.Format("2006-01-02")
}

// parseClock extracts a 24h "HH:MM" time component. A bare hour with
// no meridiem follows the businesslike default: 1-7 is afternoon,
// 8-11 is morning, 12 is noon.
func parseClock(t string) string {
	if strings.Contains(t, "midnight") {
		return "00:00"
	}
	if strings.Contains(t, "noon") || strings.Contains(t, "midday") {
		return "12:00"
	}

	if m := clockRegex.FindStringSubmatch(t); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if ap := meridiem(m[3]); ap != "" {
			hh = to24Hour(hh, ap)
		}
		return fmt.Sprintf("%02d:%02d", hh, mm)
	}

	if m := hourMeridiemRe.FindStringSubmatch(t); m != nil {
		hh, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:00", to24Hour(hh, meridiem(m[2])))
	}

	hour := -1
	if m := bareHourAtRegex.FindStringSubmatch(t); m != nil {
		hour, _ = strconv.Atoi(m[1])
	} else if m := bareNumberRegex.FindStringSubmatch(t); m != nil {
		hour, _ = strconv.Atoi(m[1])
	}
	if hour >= 0 {
		switch {
		case hour >= 13 && hour <= 23:
			return fmt.Sprintf("%02d:00", hour)
		case hour == 12:
			return "12:00"
		case hour >= 8 && hour <= 11:
			return fmt.Sprintf("%02d:00", hour)
		case hour >= 1 && hour <= 7:
			return fmt.Sprintf("%02d:00", hour+12)
		}
	}

	return ""
}

func meridiem(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), ".", "")
	if s == "am" || s == "pm" {
		return s
	}
	return ""
}

func to24Hour(hh int, ap string) int {
	if hh == 12 {
		hh = 0
	}
	if ap == "pm" {
		hh += 12
	}
	return hh
}
