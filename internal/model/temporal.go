package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout       = "2006-01-02"
	clockLayout      = "15:04:05"
	clockShortLayout = "15:04"
)

// Date is a calendar date without a timezone. It is stored and compared in
// the same local frame it was entered in, and serializes as "2006-01-02"
// both in JSON and in SQL, so lexicographic order matches chronological
// order on every backend.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf extracts the calendar date from t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// Compare returns -1 if d is before o, 0 if equal, +1 if after.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner. Accepts TEXT (sqlite) and native DATE
// values (postgres).
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if s == "" {
		*d = Date{}
		return nil
	}
	// Some drivers hand back a full timestamp for date columns.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GormDataType tells GORM which column type to migrate to.
func (Date) GormDataType() string { return "date" }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a wall-clock time of day without a timezone, second
// granularity. Serializes as "15:04:05".
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// NewClockTime builds a ClockTime from its components.
func NewClockTime(hour, minute, second int) ClockTime {
	return ClockTime{Hour: hour, Minute: minute, Second: second}
}

// ClockOf extracts the wall-clock time from t in t's location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// ParseClockTime parses "15:04:05" or the short "15:04" form.
func ParseClockTime(s string) (ClockTime, error) {
	layout := clockLayout
	if len(s) == len(clockShortLayout) {
		layout = clockShortLayout
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return ClockOf(t), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// Compare returns -1 if c is before o, 0 if equal, +1 if after.
func (c ClockTime) Compare(o ClockTime) int {
	switch {
	case c.Hour != o.Hour:
		return cmpInt(c.Hour, o.Hour)
	case c.Minute != o.Minute:
		return cmpInt(c.Minute, o.Minute)
	default:
		return cmpInt(c.Second, o.Second)
	}
}

func (c ClockTime) Before(o ClockTime) bool { return c.Compare(o) < 0 }
func (c ClockTime) After(o ClockTime) bool  { return c.Compare(o) > 0 }
func (c ClockTime) Equal(o ClockTime) bool  { return c.Compare(o) == 0 }

// Value implements driver.Valuer.
func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner.
func (c *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = ClockTime{}
		return nil
	case time.Time:
		*c = ClockOf(v)
		return nil
	case string:
		return c.scanString(v)
	case []byte:
		return c.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ClockTime", src)
	}
}

func (c *ClockTime) scanString(s string) error {
	if s == "" {
		*c = ClockTime{}
		return nil
	}
	if len(s) > len(clockLayout) {
		s = s[:len(clockLayout)]
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// GormDataType tells GORM which column type to migrate to.
func (ClockTime) GormDataType() string { return "time" }

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*c = ClockTime{}
		return nil
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
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
