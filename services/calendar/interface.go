package calendar

import (
	"context"
	"errors"

	"frontdesk/models"
)

// ErrSlotTaken reports a scheduling conflict: the requested window is
// already busy. The dialogue reacts by re-collecting the date-time
// instead of ending the session.
var ErrSlotTaken = errors.New("requested time slot is already booked")

// Scheduler creates the calendar event for a fully confirmed booking
// intent and sends the invite to the caller.
type Scheduler interface {
	Schedule(ctx context.Context, intent models.BookingIntent) (*models.BookingConfirmation, error)
}
