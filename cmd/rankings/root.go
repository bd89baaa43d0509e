package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PratikDhanave/site-analytics/internal/models"
	"github.com/PratikDhanave/site-analytics/internal/rankings"
)

var (
	apiURL    string
	apiKey    string
	websiteID string
	rankType  string
	since     time.Duration
	animate   bool
	watch     time.Duration
	title     string
)

var rootCmd = &cobra.Command{
	Use:   "rankings",
	Short: "Render the top rankings of a website as horizontal bars",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return runRankings(ctx)
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Bind flags with fallback to environment variables
	rootCmd.Flags().StringVar(&apiURL, "api-url", getEnv("ANALYTICS_API_URL", "http://localhost:8080"), "Analytics API base URL")
	rootCmd.Flags().StringVar(&apiKey, "api-key", getEnv("ANALYTICS_API_KEY", ""), "X-API-Key for the website")
	rootCmd.Flags().StringVar(&websiteID, "website", getEnv("ANALYTICS_WEBSITE_ID", ""), "Website ID")
	rootCmd.Flags().StringVar(&rankType, "type", "url", "Ranking type (url, referrer, title, event, browser, os, device, country, ...)")
	rootCmd.Flags().DurationVar(&since, "since", getEnvAsDuration("ANALYTICS_RANGE", 24*time.Hour), "Date range ending now")
	rootCmd.Flags().BoolVar(&animate, "animate", true, "Grow the bars from zero")
	rootCmd.Flags().DurationVar(&watch, "watch", 0, "Re-render on this interval (0 renders once)")
	rootCmd.Flags().StringVar(&title, "title", "", "Chart title (defaults to the type)")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	if d, err := time.ParseDuration(valStr); err == nil {
		return d
	}
	if hours, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(hours) * time.Hour
	}
	return fallback
}

func runRankings(ctx context.Context) error {
	if websiteID == "" {
		return fmt.Errorf("--website is required")
	}
	if title == "" {
		title = rankType
	}

	chart := &rankings.Chart{
		Title:      title,
		Heading:    "views",
		Source:     rankings.NewClient(apiURL, apiKey),
		Animate:    animate,
		FrameDelay: 30 * time.Millisecond,
	}

	// The range is truncated to the minute so a watch only refetches when it moves.
	params := func() rankings.Params {
		end := time.Now().UTC().Truncate(time.Minute)
		return rankings.Params{
			WebsiteID: websiteID,
			StartAt:   end.Add(-since),
			EndAt:     end,
			Type:      models.RankingType(rankType),
		}
	}

	if _, err := chart.Update(ctx, params()); err != nil {
		return err
	}
	if err := chart.Render(os.Stdout); err != nil {
		return err
	}
	if watch <= 0 {
		return nil
	}

	ticker := time.NewTicker(watch)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fetched, err := chart.Update(ctx, params())
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if fetched {
				if err := chart.Render(os.Stdout); err != nil {
					return err
				}
			}
		}
	}
}
