package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/adsim/internal/core/domain"
	redisclient "github.com/vietddude/adsim/internal/infra/redis"
)

var statusDay string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the outcome statistics recorded for a day",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusDay, "day", "", "day as YYYY-MM-DD (default is today, UTC)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if !cfg.Redis.Enabled() {
		slog.Error("Redis is not configured")
		os.Exit(1)
	}

	client, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	day := statusDay
	if day == "" {
		day = redisclient.Day(time.Now())
	}

	stats, err := redisclient.NewOutcomeStats(client, 0).Get(context.Background(), day)
	if err != nil {
		slog.Error("Failed to read outcome stats", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintf(w, "DAY %s\n", stats.Day)
	_, _ = fmt.Fprintln(w, "CHOICE\tAUTHENTIC\tSYNTHETIC")
	for _, choice := range domain.AllChoices {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n",
			choice,
			stats.Counts[domain.SourceAuthentic][choice],
			stats.Counts[domain.SourceSynthetic][choice],
		)
	}
	_, _ = fmt.Fprintf(w, "TOTAL\t%d\t%d\n",
		stats.Total(domain.SourceAuthentic),
		stats.Total(domain.SourceSynthetic),
	)
	_ = w.Flush()
}
