package hours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeHours(t *testing.T) {
	base := time.Date(2024, 5, 4, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		out  time.Time
		want string
	}{
		{"thirty minutes fifteen seconds", base.Add(30*time.Minute + 15*time.Second), "0.504167"},
		{"exact hour", base.Add(time.Hour), "1.000000"},
		{"one millisecond", base.Add(time.Millisecond), "0.000000"},
		{"eighteen milliseconds", base.Add(18 * time.Millisecond), "0.000005"},
		{"sub-millisecond is truncated", base.Add(999 * time.Microsecond), "0.000000"},
		{"zero", base, "0.000000"},
		{"negative clamps", base.Add(-time.Minute), "0.000000"},
		{"overnight", base.Add(14*time.Hour + 20*time.Minute), "14.333333"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeHours(base, tt.out).StringFixed(Places))
		})
	}
}

func TestEntryDateUsesCheckInDayInUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	checkIn := time.Date(2024, 5, 4, 22, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), EntryDate(checkIn))
}
