// Package calendar holds the date arithmetic shared by bookings, holidays and
// maintenance: range expansion, overlap checks, half days and working-day counts.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// MaxRangeDays bounds ExpandDates so a typo in a year can't allocate forever.
const MaxRangeDays = 366

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("end date is before start date")
	ErrRangeTooLong = fmt.Errorf("date range longer than %d days", MaxRangeDays)
)

// HalfDay marks a single-day period as morning or afternoon only.
type HalfDay string

const (
	FullDay HalfDay = ""
	AM      HalfDay = "am"
	PM      HalfDay = "pm"
)

// IsValid reports whether h is one of the known values.
func (h HalfDay) IsValid() bool {
	return h == FullDay || h == AM || h == PM
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders t's calendar date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the current date in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}

// AddDays shifts a date string by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// ExpandDates lists every date from start to end inclusive.
func ExpandDates(start, end string) ([]string, error) {
	s, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	if e.Before(s) {
		return nil, ErrInvalidRange
	}
	days := int(e.Sub(s).Hours()/24) + 1
	if days > MaxRangeDays {
		return nil, ErrRangeTooLong
	}
	out := make([]string, 0, days)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, FormatDate(d))
	}
	return out, nil
}

// Overlaps reports whether the inclusive ranges [aStart, aEnd] and [bStart, bEnd] intersect.
// YYYY-MM-DD strings order the same way as the dates they name.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// Within reports whether date falls inside [start, end].
func Within(date, start, end string) bool {
	return start <= date && date <= end
}

// IsWeekend reports whether the date is a Saturday or Sunday.
func IsWeekend(date string) bool {
	t, err := ParseDate(date)
	if err != nil {
		return false
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Period is an inclusive date range, optionally limited to half of a single day.
type Period struct {
	Start   string
	End     string
	HalfDay HalfDay
}

// Validate checks the dates parse, are ordered, and that half days only apply to one date.
func (p Period) Validate() error {
	s, err := ParseDate(p.Start)
	if err != nil {
		return err
	}
	e, err := ParseDate(p.End)
	if err != nil {
		return err
	}
	if e.Before(s) {
		return ErrInvalidRange
	}
	if !p.HalfDay.IsValid() {
		return fmt.Errorf("invalid half day %q", p.HalfDay)
	}
	if p.HalfDay != FullDay && p.Start != p.End {
		return errors.New("half day requests must start and end on the same date")
	}
	return nil
}

// Dates expands the period into its individual dates.
func (p Period) Dates() ([]string, error) {
	return ExpandDates(p.Start, p.End)
}

// Conflicts reports whether two periods claim the same time. Morning and
// afternoon halves of the same single day can coexist.
func (p Period) Conflicts(other Period) bool {
	if !Overlaps(p.Start, p.End, other.Start, other.End) {
		return false
	}
	if p.HalfDay != FullDay && other.HalfDay != FullDay && p.HalfDay != other.HalfDay {
		return false
	}
	return true
}

// BankHolidays is a set of non-working dates.
type BankHolidays map[string]bool

// NewBankHolidays builds a set from a list of dates.
func NewBankHolidays(dates ...string) BankHolidays {
	set := make(BankHolidays, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set
}

// Contains reports whether date is a bank holiday. A nil set contains nothing.
func (b BankHolidays) Contains(date string) bool {
	return b[date]
}

// IsWorkingDay reports whether date is a weekday that isn't a bank holiday.
func IsWorkingDay(date string, holidays BankHolidays) bool {
	return !IsWeekend(date) && !holidays.Contains(date)
}

// WorkingDays counts the working days a period consumes. A half day counts 0.5.
func WorkingDays(p Period, holidays BankHolidays) (float64, error) {
	byYear, err := WorkingDaysByYear(p, holidays)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, n := range byYear {
		total += n
	}
	return total, nil
}

// WorkingDaysByYear is WorkingDays split by calendar year, for allowances on
// periods that run over New Year.
func WorkingDaysByYear(p Period, holidays BankHolidays) (map[int]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	dates, err := p.Dates()
	if err != nil {
		return nil, err
	}
	weight := 1.0
	if p.HalfDay != FullDay {
		weight = 0.5
	}
	out := make(map[int]float64)
	for _, d := range dates {
		if !IsWorkingDay(d, holidays) {
			continue
		}
		t, _ := ParseDate(d)
		out[t.Year()] += weight
	}
	return out, nil
}

// Intersect returns the dates present in both sorted lists.
func Intersect(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
