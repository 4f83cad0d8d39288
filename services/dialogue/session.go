package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"frontdesk/cron"
	"frontdesk/models"
	"frontdesk/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrSessionExpired reports a turn against a session that no longer
// exists (TTL lapsed or already ended). The caller restarts with init.
var ErrSessionExpired = errors.New("session expired or not found")

const sessionKeyPrefix = "dlg:sess:"

// sessionLocks serializes turns per session so concurrent requests for
// the same caller cannot interleave state transitions. Sessions on
// different IDs proceed in parallel. Entries are reference-counted:
// waiters register before blocking, and an entry is only removed once
// the last holder or waiter releases it, so every request for a given
// ID contends on the same mutex.
type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// acquire blocks until the per-session mutex is held.
func (l *sessionLocks) acquire(sessionID string) *sessionLock {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*sessionLock)
	}
	lock, ok := l.m[sessionID]
	if !ok {
		lock = &sessionLock{}
		l.m[sessionID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return lock
}

func (l *sessionLocks) release(sessionID string, lock *sessionLock) {
	lock.mu.Unlock()

	l.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.m, sessionID)
	}
	l.mu.Unlock()
}

// Advance loads (or creates) the session, runs one turn of the state
// machine, and persists the result. Terminal turns tear the session
// down and, on success, archive the booking and queue its reminder.
func (s *DefaultSessionService) Advance(ctx context.Context, sessionID, transcript string, init bool) (*models.TurnResult, error) {
	lock := s.locks.acquire(sessionID)
	defer s.locks.release(sessionID, lock)

	sc, err := s.load(ctx, sessionID)
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if sc == nil {
		if !init {
			return nil, ErrSessionExpired
		}
		sc = models.NewSessionContext(sessionID, time.Now())
	}

	res := s.Machine.Step(ctx, sc, transcript, init)
	sc.UpdatedAt = time.Now()

	if res.Ended {
		s.teardown(ctx, sc)
		return res, nil
	}

	if err := s.save(ctx, sc); err != nil {
		return nil, fmt.Errorf("failed to persist session %s: %w", sessionID, err)
	}
	return res, nil
}

// End discards a session regardless of state. Ending a session that
// does not exist is not an error.
func (s *DefaultSessionService) End(ctx context.Context, sessionID string) error {
	lock := s.locks.acquire(sessionID)
	defer s.locks.release(sessionID, lock)

	if err := s.Redis.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *DefaultSessionService) load(ctx context.Context, sessionID string) (*models.SessionContext, error) {
	raw, err := s.Redis.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sc models.SessionContext
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		return nil, fmt.Errorf("corrupt session state: %w", err)
	}
	return &sc, nil
}

func (s *DefaultSessionService) save(ctx context.Context, sc *models.SessionContext) error {
	raw, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, sessionKeyPrefix+sc.SessionID, raw, s.ttl()).Err()
}

// teardown removes the finished session and, for a successful booking,
// archives it and schedules the reminder. Archive failures are logged
// but never surfaced to the caller: the calendar event already exists.
func (s *DefaultSessionService) teardown(ctx context.Context, sc *models.SessionContext) {
	logger := utils.GetLogger()

	if err := s.Redis.Del(ctx, sessionKeyPrefix+sc.SessionID).Err(); err != nil {
		logger.Warn("failed to delete finished session", zap.String("sessionId", sc.SessionID), zap.Error(err))
	}

	if sc.State != models.StateEndedSuccess || sc.Intent == nil {
		return
	}

	record := models.BookingRecord{
		SessionID:  sc.SessionID,
		CallerName: sc.Intent.CallerName,
		Email:      sc.Intent.Email,
		Start:      sc.Intent.Start,
		End:        sc.Intent.End,
		Reason:     sc.Intent.Reason,
	}
	if sc.Confirmation != nil {
		record.EventID = sc.Confirmation.EventID
		record.EventLink = sc.Confirmation.EventLink
	}

	id, err := s.Bookings.Create(ctx, record)
	if err != nil {
		logger.Error("failed to archive booking", zap.String("sessionId", sc.SessionID), zap.Error(err))
		return
	}

	err = cron.EnqueueReminder(models.ReminderPayload{
		BookingID:  id,
		CallerName: sc.Intent.CallerName,
		Email:      sc.Intent.Email,
		Start:      sc.Intent.Start,
		Summary:    fmt.Sprintf("Appointment: %s (%s)", sc.Intent.CallerName, sc.Intent.Reason),
	}, s.ReminderLead)
	if err != nil {
		logger.Warn("failed to enqueue reminder", zap.String("bookingId", id), zap.Error(err))
	}
}

func (s *DefaultSessionService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 30 * time.Minute
}
