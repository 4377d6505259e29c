package cycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout        = "2006-01-02"
	DisplayDateLayout = "02/01/2006"
)

var ErrInvalidDate = errors.New("invalid calendar date")

// Date is a calendar day with no time-of-day component. The zero value is
// the zero day (0000-00-00) and is treated as "unset" by callers.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf keeps the wall-clock day of value in its own location.
func DateOf(value time.Time) Date {
	year, month, day := value.Date()
	return Date{Year: year, Month: month, Day: day}
}

func DateIn(value time.Time, location *time.Location) Date {
	if location == nil {
		location = time.UTC
	}
	return DateOf(value.In(location))
}

func ParseDate(raw string) (Date, error) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return DateOf(parsed), nil
}

func MustParseDate(raw string) Date {
	day, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return day
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) In(location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, location)
}

func (d Date) AddDays(days int) Date {
	return NewDate(d.Year, d.Month, d.Day+days)
}

// DaysSince returns the signed number of whole days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.Time().Sub(other.Time()).Hours() / 24)
}

func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return compareInts(d.Year, other.Year)
	case d.Month != other.Month:
		return compareInts(int(d.Month), int(other.Month))
	default:
		return compareInts(d.Day, other.Day)
	}
}

func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateLayout)
}

func (d Date) DisplayString() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DisplayDateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
