package fx

import (
	"fmt"
	"time"

	"fxpipe/internal/services"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Date is a calendar day without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(text string) (Date, error) {
	t, err := time.Parse(dateLayout, text)
	if err != nil {
		return Date{}, services.Wrap(services.ErrMalformedRecord, "fx", "parse date", fmt.Sprintf("invalid date %q", text), err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// CalendarMonth returns the month containing d.
func (d Date) CalendarMonth() Month {
	return Month{Year: d.Year, Month: d.Month}
}

// Compare orders dates chronologically, returning -1, 0 or 1.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM month.
func ParseMonth(text string) (Month, error) {
	t, err := time.Parse(monthLayout, text)
	if err != nil {
		return Month{}, services.Wrap(services.ErrMalformedRecord, "fx", "parse month", fmt.Sprintf("invalid month %q", text), err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Compare orders months chronologically, returning -1, 0 or 1.
func (m Month) Compare(other Month) int {
	if m.Year != other.Year {
		return cmpInt(m.Year, other.Year)
	}
	return cmpInt(int(m.Month), int(other.Month))
}

// MonthRange lists every month from first to last, both inclusive, in
// ascending order. It returns nil when last precedes first.
func MonthRange(first, last Month) []Month {
	if last.Compare(first) < 0 {
		return nil
	}
	months := make([]Month, 0, (last.Year-first.Year)*12+int(last.Month)-int(first.Month)+1)
	for m := first; m.Compare(last) <= 0; m = m.Next() {
		months = append(months, m)
	}
	return months
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
