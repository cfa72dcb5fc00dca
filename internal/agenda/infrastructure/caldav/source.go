// Package caldav reads events from a CalDAV calendar (Apple Calendar, Fastmail, Nextcloud, etc.)
// and exposes them as an agenda event source.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// SourceName identifies CalDAV records in agenda feeds.
const SourceName = "caldav"

const (
	timeLayout     = "15:04"
	lastMinute     = "23:59"
	statusCanceled = "cancelled"
)

// EventSource lists events of one CalDAV calendar. It never writes to the server.
type EventSource struct {
	baseURL      string
	username     string
	password     string // App-specific password for Apple
	calendarPath string // Specific calendar path, or empty for the first calendar
	location     *time.Location
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewEventSource creates a CalDAV event source.
func NewEventSource(baseURL, username, password string, logger *slog.Logger) *EventSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventSource{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		location:   time.Local,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// WithCalendarPath sets the specific calendar path to use.
func (s *EventSource) WithCalendarPath(path string) *EventSource {
	s.calendarPath = path
	return s
}

// WithLocation sets the zone event times are rendered in.
func (s *EventSource) WithLocation(loc *time.Location) *EventSource {
	if loc != nil {
		s.location = loc
	}
	return s
}

// WithHTTPClient replaces the HTTP client used for requests.
func (s *EventSource) WithHTTPClient(c *http.Client) *EventSource {
	if c != nil {
		s.httpClient = c
	}
	return s
}

// Name implements domain.EventSource.
func (s *EventSource) Name() string { return SourceName }

// EventsBetween returns the calendar events overlapping [start, end].
func (s *EventSource) EventsBetween(ctx context.Context, contextID string, start, end time.Time) ([]domain.CalendarEvent, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}

	calPath, err := s.findCalendarPath(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  "VCALENDAR",
			Props: []string{"VERSION"},
			Comps: []caldav.CalendarCompRequest{
				{
					Name:  "VEVENT",
					Props: []string{"SUMMARY", "DTSTART", "DTEND", "DURATION", "UID", "DESCRIPTION", "STATUS", "CATEGORIES"},
				},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: start,
					End:   end,
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}

	events := make([]domain.CalendarEvent, 0, len(objects))
	for i := range objects {
		ev, ok := s.toCalendarEvent(&objects[i], contextID)
		if !ok {
			s.logger.Debug("caldav object skipped", "path", objects[i].Path)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (s *EventSource) client() (*caldav.Client, error) {
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(s.httpClient, s.username, s.password), s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (s *EventSource) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if s.calendarPath != "" {
		return s.calendarPath, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}

	// First calendar is the default
	return cals[0].Path, nil
}

// toCalendarEvent maps the first VEVENT of obj. All-day and cancelled events are skipped.
func (s *EventSource) toCalendarEvent(obj *caldav.CalendarObject, contextID string) (domain.CalendarEvent, bool) {
	if obj == nil || obj.Data == nil {
		return domain.CalendarEvent{}, false
	}

	for _, child := range obj.Data.Children {
		if child.Name != ical.CompEvent {
			continue
		}

		ev := domain.CalendarEvent{
			ID:        obj.Path,
			ContextID: contextID,
			Type:      "event",
			Title:     propText(child, ical.PropSummary),
		}
		if uid := propText(child, ical.PropUID); uid != "" {
			ev.ID = uid
		}
		if strings.EqualFold(propText(child, ical.PropStatus), statusCanceled) {
			return domain.CalendarEvent{}, false
		}
		ev.Description = propText(child, ical.PropDescription)
		for _, c := range propTextList(child, ical.PropCategories) {
			ev.Tags = domain.AddTag(ev.Tags, strings.TrimSpace(c))
		}

		icalEvent := &ical.Event{Component: child}
		start, err := icalEvent.DateTimeStart(s.location)
		if err != nil || start.IsZero() {
			return domain.CalendarEvent{}, false
		}
		end, err := icalEvent.DateTimeEnd(s.location)
		if err != nil || !end.After(start) {
			end = start
		}
		start, end = start.In(s.location), end.In(s.location)

		if isAllDay(child, start, end) {
			return domain.CalendarEvent{}, false
		}

		ev.Date = start.Format(domain.DateLayout)
		ev.StartTime = start.Format(timeLayout)
		ev.EndTime = end.Format(timeLayout)
		if !domain.SameDay(start, end) {
			// Multi-day events are clipped to the first date.
			ev.EndTime = lastMinute
		}
		ev.Duration = int(end.Sub(start).Minutes())
		return ev, true
	}

	return domain.CalendarEvent{}, false
}

func isAllDay(comp *ical.Component, start, end time.Time) bool {
	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil && prop.ValueType() == ical.ValueDate {
		return true
	}
	return start.Hour() == 0 && start.Minute() == 0 && end.Hour() == 0 && end.Minute() == 0 && !end.Equal(start)
}

// propText decodes a single TEXT value. Servers do not always escape commas
// in SUMMARY or DESCRIPTION, so the decoded parts are joined back together.
func propText(comp *ical.Component, name string) string {
	prop := comp.Props.Get(name)
	if prop == nil {
		return ""
	}
	parts, err := prop.TextList()
	if err != nil {
		return strings.TrimSpace(prop.Value)
	}
	return strings.TrimSpace(strings.Join(parts, ","))
}

// propTextList decodes every occurrence of a multi-valued TEXT property.
func propTextList(comp *ical.Component, name string) []string {
	var out []string
	for _, prop := range comp.Props.Values(name) {
		parts, err := prop.TextList()
		if err != nil {
			parts = strings.Split(prop.Value, ",")
		}
		out = append(out, parts...)
	}
	return out
}
