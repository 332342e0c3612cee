package provider

import "time"

// DiffWorkdays counts the whole working days (Mon-Fri) between two
// timestamps. Used to decide whether a slow-settling method can still be
// offered before an invoice auto-cancels.
func DiffWorkdays(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	days := 0
	d := from.Truncate(24 * time.Hour)
	end := to.Truncate(24 * time.Hour)
	for d.Before(end) {
		d = d.AddDate(0, 0, 1)
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}
