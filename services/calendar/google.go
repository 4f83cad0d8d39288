package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"frontdesk/models"
	"frontdesk/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleCalendarService books appointments on a Google calendar.
type GoogleCalendarService struct {
	svc        *gcal.Service
	calendarID string
	timezone   string
}

func NewGoogleCalendarService(ctx context.Context, credentialsFile, calendarID, timezone string) (*GoogleCalendarService, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarEventsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &GoogleCalendarService{svc: svc, calendarID: calendarID, timezone: timezone}, nil
}

// Schedule probes the window for conflicts, then inserts the event and
// emails the invite to the caller. A busy window or a 409 from the API
// surfaces as ErrSlotTaken so the dialogue can offer another time.
func (g *GoogleCalendarService) Schedule(ctx context.Context, intent models.BookingIntent) (*models.BookingConfirmation, error) {
	logger := utils.GetLogger()

	busy, err := g.windowBusy(ctx, intent.Start, intent.End)
	if err != nil {
		// Free/busy probe failure is not fatal; the insert below is
		// still authoritative.
		logger.Warn("calendar free/busy probe failed", zap.Error(err))
	} else if busy {
		return nil, ErrSlotTaken
	}

	falseVal := false
	event := &gcal.Event{
		Summary: fmt.Sprintf("Appointment: %s (%s)", intent.CallerName, intent.Reason),
		Description: fmt.Sprintf(
			"Caller: %s\nReason: %s\nEmail: %s\nBooked by the voice appointment agent.",
			intent.CallerName, intent.Reason, intent.Email,
		),
		Start: &gcal.EventDateTime{
			DateTime: intent.Start.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: intent.End.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		Attendees: safeAttendees(intent.Email),
		ConferenceData: &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             uuid.New().String(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		},
		GuestsCanInviteOthers: &falseVal,
		GuestsCanModify:       false,
		Reminders:             &gcal.EventReminders{UseDefault: true, ForceSendFields: []string{"UseDefault"}},
	}

	created, err := g.svc.Events.Insert(g.calendarID, event).
		Context(ctx).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}

	logger.Info("calendar event created",
		zap.String("eventId", created.Id),
		zap.String("start", intent.Start.Format(time.RFC3339)),
	)
	return &models.BookingConfirmation{
		EventID:   created.Id,
		EventLink: created.HtmlLink,
		Message:   "Event created: " + created.HtmlLink,
	}, nil
}

// windowBusy asks the free/busy API whether anything overlaps the slot.
func (g *GoogleCalendarService) windowBusy(ctx context.Context, start, end time.Time) (bool, error) {
	resp, err := g.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin:  start.Format(time.RFC3339),
		TimeMax:  end.Format(time.RFC3339),
		TimeZone: g.timezone,
		Items:    []*gcal.FreeBusyRequestItem{{Id: g.calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	cal, ok := resp.Calendars[g.calendarID]
	if !ok {
		return false, nil
	}
	return len(cal.Busy) > 0, nil
}

func safeAttendees(email string) []*gcal.EventAttendee {
	if !strings.Contains(email, "@") {
		return nil
	}
	return []*gcal.EventAttendee{{Email: email}}
}
