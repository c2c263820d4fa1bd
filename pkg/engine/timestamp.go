package engine

import "time"

// ExtractTimestamp returns the syslog-style "Jan _2 15:04:05" prefix of line
// as a time in now's year and location. Timestamps more than a day in the
// future are assumed to belong to the previous year. Lines without a
// parsable prefix get now.
func ExtractTimestamp(line string, now time.Time) time.Time {
	if len(line) < len(time.Stamp) {
		return now
	}
	parsed, err := time.ParseInLocation(time.Stamp, line[:len(time.Stamp)], now.Location())
	if err != nil {
		return now
	}
	ts := stampIn(parsed, now.Year(), now.Location())
	if ts.Day() != parsed.Day() {
		// Feb 29 outside a leap year: only last year can hold it
		ts = stampIn(parsed, now.Year()-1, now.Location())
		if ts.Day() != parsed.Day() {
			return now
		}
		return ts
	}
	if ts.Sub(now) > 24*time.Hour {
		ts = ts.AddDate(-1, 0, 0)
	}
	return ts
}

func stampIn(p time.Time, year int, loc *time.Location) time.Time {
	return time.Date(year, p.Month(), p.Day(), p.Hour(), p.Minute(), p.Second(), 0, loc)
}
