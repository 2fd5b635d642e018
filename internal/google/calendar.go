package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"studycal/internal/models"
)

const (
	credentialsFile = "credentials.json"
	calendarID      = "primary"
	calendarLink    = "https://calendar.google.com"
)

// ErrCredentialsMissing signals that no OAuth client configuration was found
// in the environment or in credentials.json. Callers should tell the user how
// to fix this rather than show a generic failure.
var ErrCredentialsMissing = errors.New("google credentials not configured")

// CalendarClient creates events through the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient creates a new Google Calendar client.
// It handles loading credentials and setting up an authenticated HTTP client.
// It supports multiple accounts by looking for token files like token-user1.json, token-user2.json, etc.
// The accountName is used to find the correct token file.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, accountName string) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := fmt.Sprintf("token-%s.json", accountName)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", accountName, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger}, nil
}

// CreateEvent inserts one event into the primary calendar and returns the
// id and htmlLink assigned by Google.
func (c *CalendarClient) CreateEvent(ctx context.Context, event *models.CalendarEvent) (models.EventRef, error) {
	c.logger.Debug("Creating Google Calendar event", "summary", event.Summary, "start", event.Start)

	created, err := c.service.Events.Insert(calendarID, toAPIEvent(event)).Context(ctx).Do()
	if err != nil {
		return models.EventRef{}, fmt.Errorf("failed to insert event: %w", err)
	}

	c.logger.Debug("Created Google Calendar event", "id", created.Id)
	return models.EventRef{ID: created.Id, Link: created.HtmlLink}, nil
}

// CalendarLink returns the user-facing URL of the target calendar.
func (c *CalendarClient) CalendarLink() string {
	return calendarLink
}

// toAPIEvent converts the internal event model to the Google Calendar API shape.
func toAPIEvent(event *models.CalendarEvent) *calendar.Event {
	var overrides []*calendar.EventReminder
	for _, r := range event.Reminders {
		overrides = append(overrides, &calendar.EventReminder{Method: r.Method, Minutes: int64(r.Minutes)})
	}

	return &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
		ColorId: event.ColorID,
	}
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes environment variables over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("%w: provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the root directory", ErrCredentialsMissing)
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(context.Background(), authCode)
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// GetTokenAccounts lists the account names that have a saved token file.
func GetTokenAccounts() ([]string, error) {
	files, err := os.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "token-") && strings.HasSuffix(file.Name(), ".json") {
			accountName := strings.TrimSuffix(strings.TrimPrefix(file.Name(), "token-"), ".json")
			accounts = append(accounts, accountName)
		}
	}
	return accounts, nil
}
