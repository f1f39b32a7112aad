// Package hours keeps the append-only volunteer-hours ledger.
package hours

import (
	"time"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places hours are rounded to.
const Places = 6

var msPerHour = decimal.NewFromInt(int64(time.Hour / time.Millisecond))

// ComputeHours converts the interval between check-in and check-out into hours,
// using millisecond precision rounded to six places. Negative intervals yield zero.
func ComputeHours(checkIn, checkOut time.Time) decimal.Decimal {
	ms := checkOut.Sub(checkIn).Milliseconds()
	if ms <= 0 {
		return decimal.Zero.Round(Places)
	}
	return decimal.NewFromInt(ms).DivRound(msPerHour, Places)
}

// EntryDate is the calendar date, in UTC, an entry is credited to.
func EntryDate(checkIn time.Time) time.Time {
	y, m, d := checkIn.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
