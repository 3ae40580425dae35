package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
}

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"new year in regular year", date(2024, time.September, 11), "Meskerem 2017"},
		{"new year before a leap year", date(2023, time.September, 12), "Meskerem 2016"},
		{"day before shifted new year is pagume", date(2023, time.September, 11), "Pagume 2015"},
		{"sixth pagume day of leap cycle", date(2024, time.September, 10), "Pagume 2016"},
		{"first pagume day", date(2024, time.September, 6), "Pagume 2016"},
		{"last nehase day", date(2024, time.September, 5), "Nehase 2016"},
		{"january falls into tir", date(2024, time.January, 15), "Tir 2016"},
		{"tahsas start", date(2025, time.December, 10), "Tahsas 2018"},
		{"mid tahsas", date(2025, time.December, 15), "Tahsas 2018"},
		{"hidar end", date(2025, time.December, 9), "Hidar 2018"},
		{"october is tikimt", date(2025, time.October, 20), "Tikimt 2018"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Of(tt.in).String())
		})
	}
}

func TestOfUsesLocalCalendarDate(t *testing.T) {
	addis := time.FixedZone("EAT", 3*60*60)
	// 22:00 UTC on Sep 10 is already Sep 11 in Addis Ababa.
	in := time.Date(2024, time.September, 11, 1, 0, 0, 0, addis)
	assert.Equal(t, "Meskerem 2017", Of(in).String())
}

func TestParity(t *testing.T) {
	assert.Equal(t, Even, ReportingPeriod{Month: Meskerem, Year: 2018}.Parity())
	assert.Equal(t, Odd, ReportingPeriod{Month: Tikimt, Year: 2018}.Parity())
	assert.Equal(t, Even, ReportingPeriod{Month: Hidar, Year: 2018}.Parity())
	assert.Equal(t, Odd, ReportingPeriod{Month: Tahsas, Year: 2018}.Parity())
	assert.Equal(t, Even, ReportingPeriod{Month: Pagume, Year: 2018}.Parity())
}

func TestNewAndParse(t *testing.T) {
	p, err := New("tahsas", 2018)
	require.NoError(t, err)
	assert.Equal(t, Tahsas, p.Month)
	assert.Equal(t, "Tahsas 2018", p.String())

	parsed, err := Parse("Tahsas 2018")
	require.NoError(t, err)
	assert.Equal(t, p, parsed)

	_, err = New("December", 2018)
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = New("Tir", 0)
	assert.ErrorIs(t, err, ErrInvalidYear)

	_, err = Parse("Tahsas")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestFromQuery(t *testing.T) {
	clock := func() time.Time { return date(2025, time.December, 15) }

	p, err := FromQuery("", "", clock)
	require.NoError(t, err)
	assert.Equal(t, "Tahsas 2018", p.String())

	p, err = FromQuery("Tir", "", clock)
	require.NoError(t, err)
	assert.Equal(t, "Tir 2018", p.String())

	p, err = FromQuery("Hamle", "2017", clock)
	require.NoError(t, err)
	assert.Equal(t, "Hamle 2017", p.String())

	_, err = FromQuery("Tir", "abc", clock)
	assert.ErrorIs(t, err, ErrInvalidYear)
}
