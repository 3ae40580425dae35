// Package period maps calendar dates onto the Ethiopian-calendar reporting
// periods that drive facility ordering cycles.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Month is a zero-based Ethiopian month index (Meskerem = 0, Pagume = 12).
type Month int

const (
	Meskerem Month = iota
	Tikimt
	Hidar
	Tahsas
	Tir
	Yekatit
	Megabit
	Miazia
	Genbot
	Sene
	Hamle
	Nehase
	Pagume
)

var monthNames = [...]string{
	"Meskerem", "Tikimt", "Hidar", "Tahsas", "Tir", "Yekatit", "Megabit",
	"Miazia", "Genbot", "Sene", "Hamle", "Nehase", "Pagume",
}

func (m Month) String() string {
	if m < Meskerem || m > Pagume {
		return "Month(" + strconv.Itoa(int(m)) + ")"
	}
	return monthNames[m]
}

// Parity decides which facilities are due in a period.
type Parity string

const (
	Odd  Parity = "Odd"
	Even Parity = "Even"
)

var (
	ErrInvalidMonth  = errors.New("invalid ethiopian month")
	ErrInvalidYear   = errors.New("invalid ethiopian year")
	ErrInvalidPeriod = errors.New("invalid reporting period")
)

// ReportingPeriod identifies one month of one Ethiopian year.
type ReportingPeriod struct {
	Month Month
	Year  int
}

// New builds a period from a month name (case-insensitive) and year.
func New(monthName string, year int) (ReportingPeriod, error) {
	m, err := ParseMonth(monthName)
	if err != nil {
		return ReportingPeriod{}, err
	}
	if year <= 0 {
		return ReportingPeriod{}, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}
	return ReportingPeriod{Month: m, Year: year}, nil
}

// Parse reads the "Month Year" form produced by String.
func Parse(s string) (ReportingPeriod, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return ReportingPeriod{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return ReportingPeriod{}, fmt.Errorf("%w: %q", ErrInvalidYear, fields[1])
	}
	return New(fields[0], year)
}

// ParseMonth resolves a month name to its index.
func ParseMonth(name string) (Month, error) {
	name = strings.TrimSpace(name)
	for i, n := range monthNames {
		if strings.EqualFold(n, name) {
			return Month(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, name)
}

// MonthName returns the canonical month spelling.
func (p ReportingPeriod) MonthName() string { return p.Month.String() }

// String is the persisted reporting_month key, e.g. "Tahsas 2018".
func (p ReportingPeriod) String() string {
	return p.Month.String() + " " + strconv.Itoa(p.Year)
}

// Parity is (monthIndex+1) % 2, where 0 reads as Odd and 1 as Even.
func (p ReportingPeriod) Parity() Parity {
	if (int(p.Month)+1)%2 == 0 {
		return Odd
	}
	return Even
}

// Of converts the calendar date of t (in t's own location) to its period.
func Of(t time.Time) ReportingPeriod {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	newYear := newYearOf(y)
	ethYear := y - 7
	if day.Before(newYear) {
		newYear = newYearOf(y - 1)
		ethYear = y - 8
	}

	diff := int(day.Sub(newYear).Hours() / 24)
	idx := diff / 30
	if diff >= 360 {
		idx = int(Pagume)
	}
	return ReportingPeriod{Month: Month(idx), Year: ethYear}
}

// Clock supplies "now"; handlers inject it so tests can pin the date.
type Clock func() time.Time

// Current returns the period containing clock().
func Current(clock Clock) ReportingPeriod {
	if clock == nil {
		clock = time.Now
	}
	return Of(clock())
}

// FromQuery resolves optional month/year request parameters. Missing
// values fall back to the current period.
func FromQuery(month, year string, clock Clock) (ReportingPeriod, error) {
	cur := Current(clock)
	if strings.TrimSpace(month) == "" && strings.TrimSpace(year) == "" {
		return cur, nil
	}

	p := cur
	if strings.TrimSpace(month) != "" {
		m, err := ParseMonth(month)
		if err != nil {
			return ReportingPeriod{}, err
		}
		p.Month = m
	}
	if strings.TrimSpace(year) != "" {
		y, err := strconv.Atoi(strings.TrimSpace(year))
		if err != nil || y <= 0 {
			return ReportingPeriod{}, fmt.Errorf("%w: %q", ErrInvalidYear, year)
		}
		p.Year = y
	}
	return p, nil
}

// Meskerem 1 lands on September 12 in the Gregorian year preceding a
// Gregorian leap year and on September 11 otherwise.
func newYearOf(gregorianYear int) time.Time {
	day := 11
	if isLeap(gregorianYear + 1) {
		day = 12
	}
	return time.Date(gregorianYear, time.September, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
