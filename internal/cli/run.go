package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vietddude/adsim/internal/control"
	"github.com/vietddude/adsim/internal/core/domain"
)

var (
	runProduct     string
	runTagline     string
	runPrice       float64
	runCount       int
	runPersonaFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single simulation batch and print the outcomes as JSON",
	Run:   runBatch,
}

func init() {
	runCmd.Flags().StringVar(&runProduct, "product", "", "product description")
	runCmd.Flags().StringVar(&runTagline, "tagline", "", "advertisement tagline")
	runCmd.Flags().Float64Var(&runPrice, "price", 0, "product price")
	runCmd.Flags().IntVar(&runCount, "count", 10, "number of persona reactions")
	runCmd.Flags().StringVar(&runPersonaFile, "persona", "", "JSON persona file (random persona when empty)")
	rootCmd.AddCommand(runCmd)
}

type runOutput struct {
	BatchID  string                     `json:"batchId"`
	Persona  domain.PersonaProfile      `json:"persona"`
	Summary  domain.OutcomeSummary      `json:"summary"`
	Outcomes []domain.SimulationOutcome `json:"outcomes"`
}

func runBatch(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize simulator", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	persona := app.Personas().Generate()
	if runPersonaFile != "" {
		persona, err = readPersona(runPersonaFile)
		if err != nil {
			slog.Error("Failed to read persona", "error", err)
			os.Exit(1)
		}
	}

	req := domain.SimulationRequest{
		Persona:     persona,
		ProductText: runProduct,
		TaglineText: runTagline,
		Price:       runPrice,
	}
	outcomes, report, err := app.Run(ctx, req, runCount)
	if err != nil {
		slog.Error("Invalid simulation request", "error", err)
		os.Exit(1)
	}

	out := runOutput{
		BatchID:  report.BatchID,
		Persona:  persona,
		Summary:  domain.Summarize(outcomes),
		Outcomes: outcomes,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		slog.Error("Failed to write output", "error", err)
		os.Exit(1)
	}
}

func readPersona(path string) (domain.PersonaProfile, error) {
	var p domain.PersonaProfile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse persona: %w", err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p, p.Validate()
}
