package icloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	"studycal/internal/models"
)

const (
	iCloudCalDAVEndpoint = "https://caldav.icloud.com/"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "studycal/1.0")
	return t.Transport.RoundTrip(req)
}

// CalDAVClient creates events on a CalDAV server (iCloud).
type CalDAVClient struct {
	caldavClient *caldav.Client
	webdavClient *webdav.Client
	logger       *slog.Logger
	calendarURL  string
	username     string
}

// NewClient creates and initializes a new CalDAVClient for iCloud.
func NewClient(logger *slog.Logger, username, password, calendarName string) (*CalDAVClient, error) {
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, iCloudCalDAVEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	webdavClient, err := webdav.NewClient(httpClient, iCloudCalDAVEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	c := &CalDAVClient{
		caldavClient: caldavClient,
		webdavClient: webdavClient,
		logger:       logger,
		username:     username,
	}

	logger.Info("Finding iCloud calendar", "calendarName", calendarName)
	calendarURL, err := c.findCalendar(context.Background(), calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarURL = calendarURL
	logger.Info("Successfully found iCloud calendar", "url", calendarURL)

	return c, nil
}

// CreateEvent writes one event to the iCloud calendar and returns its UID
// and URL as the reference.
func (c *CalDAVClient) CreateEvent(ctx context.Context, event *models.CalendarEvent) (models.EventRef, error) {
	uid := GenerateUID()
	c.logger.Debug("Creating event on iCloud", "summary", event.Summary, "uid", uid)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//studycal//EN")
	cal.Children = append(cal.Children, toICal(event, uid))

	// The event path must be relative to the endpoint for the webdav client.
	eventPath := path.Join(strings.TrimPrefix(c.calendarURL, iCloudCalDAVEndpoint), fmt.Sprintf("%s.ics", uid))

	writer, err := c.webdavClient.Create(ctx, eventPath)
	if err != nil {
		return models.EventRef{}, fmt.Errorf("failed to create event on CalDAV server: %w", err)
	}
	defer writer.Close()

	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		return models.EventRef{}, fmt.Errorf("failed to encode event to iCal format: %w", err)
	}

	c.logger.Debug("Created event on iCloud", "uid", uid)
	return models.EventRef{ID: uid, Link: fmt.Sprintf("%s%s", iCloudCalDAVEndpoint, eventPath)}, nil
}

// CalendarLink returns the URL of the target calendar.
func (c *CalDAVClient) CalendarLink() string {
	return c.calendarURL
}

// toICal converts an internal CalendarEvent to an ical.Component (VEvent).
func toICal(event *models.CalendarEvent, uid string) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, event.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End)

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}

	// CalDAV has no popup/email distinction; every override becomes a
	// display alarm at the configured offset.
	for _, r := range event.Reminders {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, event.Summary)
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = fmt.Sprintf("-PT%dM", r.Minutes)
		alarm.Props.Add(trigger)
		ve.Children = append(ve.Children, alarm)
	}
	return ve
}

// findCalendar discovers the user's calendars and returns the URL for the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			// Return the full URL for the calendar
			return fmt.Sprintf("%s%s", strings.TrimSuffix(iCloudCalDAVEndpoint, "/"), cal.Path), nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

// GenerateUID creates a new unique identifier for an event.
func GenerateUID() string {
	return uuid.New().String()
}
