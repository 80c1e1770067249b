// Package caldav mirrors commitments into an external CalDAV calendar so
// salespeople see their bookings in Apple Calendar, Fastmail, Nextcloud and
// the like. The mirror is one-way: the calendar is a read model, never a
// source of truth.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/felixgeelhaar/reserva/internal/scheduling/domain"
	"github.com/google/uuid"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// PropXReserva marks events this mirror owns. Events without it are never
// touched.
const PropXReserva = "X-RESERVA"

// MirrorResult summarizes one mirror pass.
type MirrorResult struct {
	Created int
	Updated int
	Deleted int
	Failed  int
}

// Mirror pushes a resource's commitments into a CalDAV calendar.
type Mirror struct {
	baseURL      string
	username     string
	password     string // App-specific password for Apple
	calendarPath string // Specific calendar path, or empty for default
	logger       *slog.Logger
}

// NewMirror creates a CalDAV commitment mirror.
func NewMirror(baseURL, username, password string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
	}
}

// WithCalendarPath sets the specific calendar path to use.
func (m *Mirror) WithCalendarPath(path string) *Mirror {
	m.calendarPath = path
	return m
}

// Publish upserts an event per active commitment and removes events for
// commitments no longer in the set (cancelled ones included). Per-event
// failures are counted, not fatal: the next pass retries them.
func (m *Mirror) Publish(ctx context.Context, resource *domain.Resource, commitments []*domain.Commitment) (*MirrorResult, error) {
	client, err := m.getClient()
	if err != nil {
		return nil, err
	}

	calPath, err := m.findCalendarPath(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	result := &MirrorResult{}
	keepPaths := make(map[string]struct{}, len(commitments))

	for _, commitment := range commitments {
		if !commitment.Status().IsActive() {
			continue
		}

		eventPath := fmt.Sprintf("%s%s.ics", calPath, commitment.ID().String())
		keepPaths[eventPath] = struct{}{}

		cal := toICalendar(resource, commitment)
		updated, err := m.upsertEvent(ctx, client, eventPath, cal)
		if err != nil {
			m.logger.Warn("caldav mirror failed", "event_path", eventPath, "error", err)
			result.Failed++
			continue
		}
		if updated {
			result.Updated++
		} else {
			result.Created++
		}
	}

	deleted, err := m.deleteStaleEvents(ctx, client, calPath, keepPaths)
	if err != nil {
		m.logger.Warn("caldav stale event cleanup failed", "error", err)
	} else {
		result.Deleted = deleted
	}

	return result, nil
}

// Remove deletes the mirrored event for one commitment.
func (m *Mirror) Remove(ctx context.Context, commitmentID uuid.UUID) error {
	client, err := m.getClient()
	if err != nil {
		return err
	}

	calPath, err := m.findCalendarPath(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to find calendar: %w", err)
	}

	eventPath := fmt.Sprintf("%s%s.ics", calPath, commitmentID.String())
	return client.RemoveAll(ctx, eventPath)
}

func (m *Mirror) getClient() (*caldav.Client, error) {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &basicAuthTransport{
			username: m.username,
			password: m.password,
			base:     http.DefaultTransport,
		},
	}

	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, m.username, m.password), m.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (m *Mirror) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if m.calendarPath != "" {
		return m.calendarPath, nil
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

	return cals[0].Path, nil
}

func (m *Mirror) upsertEvent(ctx context.Context, client *caldav.Client, eventPath string, cal *ical.Calendar) (bool, error) {
	_, err := client.GetCalendarObject(ctx, eventPath)
	exists := err == nil

	_, err = client.PutCalendarObject(ctx, eventPath, cal)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (m *Mirror) deleteStaleEvents(ctx context.Context, client *caldav.Client, calPath string, keepPaths map[string]struct{}) (int, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{
				{
					Name:  "VEVENT",
					Props: []string{"UID", PropXReserva},
				},
			},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{Name: "VEVENT"},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, obj := range objects {
		if !isMirroredEvent(&obj) {
			continue
		}

		if _, ok := keepPaths[obj.Path]; ok {
			continue
		}

		if err := client.RemoveAll(ctx, obj.Path); err != nil {
			m.logger.Warn("failed to delete caldav event", "path", obj.Path, "error", err)
			continue
		}
		deleted++
	}

	return deleted, nil
}

// isMirroredEvent checks if a calendar object has the X-RESERVA property set.
func isMirroredEvent(obj *caldav.CalendarObject) bool {
	if obj == nil || obj.Data == nil {
		return false
	}

	for _, child := range obj.Data.Children {
		if child.Name == ical.CompEvent {
			if props := child.Props[PropXReserva]; len(props) > 0 {
				if props[0].Value == "1" {
					return true
				}
			}
		}
	}

	return false
}

// icalStatus maps a commitment status onto the iCalendar STATUS values
// calendar clients understand.
func icalStatus(status domain.Status) string {
	if status == domain.StatusConfirmed {
		return "CONFIRMED"
	}
	return "TENTATIVE"
}

// toICalendar converts a commitment to an ical.Calendar.
func toICalendar(resource *domain.Resource, commitment *domain.Commitment) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Reserva//Commitment Mirror//EN")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, commitment.ID().String())
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, commitment.Window().Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, commitment.Window().End.UTC())
	event.Props.SetText(ical.PropStatus, icalStatus(commitment.Status()))

	summary := fmt.Sprintf("Reserved: %s", resource.Name())
	if resource.Kind() == domain.KindPerson {
		summary = fmt.Sprintf("Meeting: %s", resource.Name())
	}
	event.Props.SetText(ical.PropSummary, summary)

	description := fmt.Sprintf("Status: %s", commitment.Status())
	description += "\n\nManaged by Reserva"
	event.Props.SetText(ical.PropDescription, description)

	// Custom property to identify mirror-created events
	reservaProp := ical.NewProp(PropXReserva)
	reservaProp.Value = "1"
	event.Props[PropXReserva] = []ical.Prop{*reservaProp}

	cal.Children = append(cal.Children, event.Component)

	return cal
}

type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(req)
}
