package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// CalendarDate returns the reader's calendar date for an instant. A nil
// location means the instant's own zone.
func CalendarDate(now time.Time, loc *time.Location) civil.Date {
	if loc != nil {
		now = now.In(loc)
	}
	return civil.DateOf(now)
}
