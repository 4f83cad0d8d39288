package dialogue

import (
	"context"
	"time"

	bookingsRepo "frontdesk/database/repository/bookings"
	"frontdesk/models"

	"github.com/go-redis/redis/v8"
)

// SessionService defines the interface for managing stateful dialogue
// sessions across turns.
type SessionService interface {
	// Advance applies one caller turn to the identified session and
	// returns the spoken reply. init starts a fresh session when none
	// exists; without it a missing session is ErrSessionExpired.
	Advance(ctx context.Context, sessionID, transcript string, init bool) (*models.TurnResult, error)
	// End discards a session without booking.
	End(ctx context.Context, sessionID string) error
}

// DefaultSessionService implements SessionService on Redis, with the
// state machine doing the per-turn work and Mongo archiving completed
// bookings.
type DefaultSessionService struct {
	Machine      *Machine
	Redis        *redis.Client
	Bookings     bookingsRepo.BookingRepository
	TTL          time.Duration
	ReminderLead time.Duration

	locks sessionLocks
}
