package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"studycal/internal/google"
	"studycal/internal/icloud"
	"studycal/internal/models"
	"studycal/internal/schedule"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "studycal",
		Usage: "Turn a weekly study schedule into calendar reminders and study sessions.",
		Commands: []*cli.Command{
			authCommand(),
			planCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Expand a study plan into calendar reminder and study session events.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "Path to the study plan JSON file."},
			&cli.StringFlag{Name: "backend", Value: "google", Usage: "Calendar backend: 'google' or 'caldav'."},
			&cli.StringFlag{Name: "account", Usage: "Google account name (token-<name>.json). Defaults to the first authenticated account."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Compute the schedule without creating any events."},
		},
		Action: func(c *cli.Context) error {
			logLevel := os.Getenv("LOG_LEVEL")
			if logLevel == "" {
				logLevel = "info"
			}
			logger := setupLogger(logLevel)

			data, err := os.ReadFile(c.String("file"))
			if err != nil {
				return fmt.Errorf("failed to read plan file: %w", err)
			}
			var plan models.StudyPlan
			if err := json.Unmarshal(data, &plan); err != nil {
				return fmt.Errorf("failed to parse plan file: %w", err)
			}

			creator, err := buildCreator(c, logger)
			if err != nil {
				return err
			}

			expander := schedule.NewExpander(logger, creator)
			report, expandErr := expander.Expand(c.Context, &plan)

			// A partial report is still worth printing: it tells the user
			// exactly which events were created before a backend failure.
			if report != nil {
				out, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode report: %w", err)
				}
				fmt.Println(string(out))
			}
			return expandErr
		},
	}
}

func buildCreator(c *cli.Context, logger *slog.Logger) (schedule.EventCreator, error) {
	if c.Bool("dry-run") {
		logger.Info("Performing a dry run. No events will be created.")
		return &dryRunCreator{logger: logger}, nil
	}

	if c.String("backend") == "caldav" {
		iClient, err := icloud.NewClient(logger, os.Getenv("ICLOUD_USERNAME"), os.Getenv("ICLOUD_APP_SPECIFIC_PASSWORD"), os.Getenv("ICLOUD_CALENDAR_NAME"))
		if err != nil {
			return nil, fmt.Errorf("failed to create icloud client: %w", err)
		}
		return iClient, nil
	}

	account := c.String("account")
	if account == "" {
		accounts, err := google.GetTokenAccounts()
		if err != nil || len(accounts) == 0 {
			return nil, fmt.Errorf("no google accounts found. Run the 'auth' command first")
		}
		account = accounts[0]
	}

	gClient, err := google.NewClient(c.Context, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), account)
	if err != nil {
		return nil, fmt.Errorf("failed to create google client for account %s: %w", account, err)
	}
	return gClient, nil
}

// dryRunCreator satisfies the backend port without touching any calendar.
type dryRunCreator struct {
	logger *slog.Logger
	n      int
}

func (d *dryRunCreator) CreateEvent(_ context.Context, event *models.CalendarEvent) (models.EventRef, error) {
	d.n++
	d.logger.Info("[DRY RUN] Would create event", "summary", event.Summary, "start", event.Start)
	return models.EventRef{ID: fmt.Sprintf("dry-run-%d", d.n)}, nil
}

func (d *dryRunCreator) CalendarLink() string {
	return ""
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
