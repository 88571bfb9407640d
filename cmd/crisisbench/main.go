// CrisisBench CLI — generate scenario packages, run the benchmark, and
// validate package integrity.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/crisisbench/crisisbench/internal/config"
	"github.com/crisisbench/crisisbench/internal/generator"
	"github.com/crisisbench/crisisbench/internal/ledger"
	"github.com/crisisbench/crisisbench/internal/runner"
	"github.com/crisisbench/crisisbench/internal/scenario"
)

var (
	flagCrisis string
	flagTier   string
	flagSeed   int64
	flagDate   string
	flagOutput string

	flagConfig        string
	flagTranscript    string
	flagMaxHeartbeats int
	flagLedger        string

	flagVerbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crisisbench",
		Short: "CrisisBench — LLM agent detection benchmark over a simulated day",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if flagVerbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
				Level(level).With().Timestamp().Logger()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a scenario package",
		RunE:  runGenerate,
	}
	generateCmd.Flags().StringVar(&flagCrisis, "crisis", "cardiac_arrest", "Crisis type to simulate")
	generateCmd.Flags().StringVar(&flagTier, "tier", "T4", "Noise tier (T1-T4)")
	generateCmd.Flags().Int64Var(&flagSeed, "seed", 42, "Random seed")
	generateCmd.Flags().StringVar(&flagDate, "date", "", "Scenario date as YYYY-MM-DD (>= 2027); default 2027-06-15")
	generateCmd.Flags().StringVar(&flagOutput, "output", "scenarios", "Output directory")

	runCmd := &cobra.Command{
		Use:   "run <scenario-dir>",
		Short: "Run the benchmark against a scenario package",
		Args:  cobra.ExactArgs(1),
		RunE:  runBenchmark,
	}
	runCmd.Flags().StringVar(&flagConfig, "config", "run_config.json", "Run configuration file")
	runCmd.Flags().StringVar(&flagTranscript, "transcript", "", "Transcript output path (default <run_id>.json)")
	runCmd.Flags().IntVar(&flagMaxHeartbeats, "max-heartbeats", 0, "Bound the run for quick inspection (0 = full)")
	runCmd.Flags().StringVar(&flagLedger, "ledger", "", "Record the run in this SQLite ledger")

	validateCmd := &cobra.Command{
		Use:   "validate <scenario-dir>",
		Short: "Verify a scenario package's files and content hash",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	rootCmd.AddCommand(generateCmd, runCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	var scenarioDate time.Time
	if flagDate != "" {
		parsed, err := time.Parse("2006-01-02", flagDate)
		if err != nil {
			return fmt.Errorf("parse --date: %w", err)
		}
		scenarioDate = parsed
	}

	pkg, err := generator.Generate(generator.Options{
		CrisisType:   flagCrisis,
		Tier:         scenario.NoiseTier(flagTier),
		Seed:         flagSeed,
		ScenarioDate: scenarioDate,
	})
	if err != nil {
		return err
	}

	dir, err := generator.WritePackage(pkg, flagOutput)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d heartbeats, crisis at %d)\n",
		dir, len(pkg.Heartbeats), pkg.CrisisHeartbeatID)
	return nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	config.LoadEnv("")

	cfg, err := config.LoadRunConfig(flagConfig)
	if err != nil {
		return err
	}

	transcript, err := runner.RunBenchmark(cmd.Context(), args[0], cfg, runner.Options{
		MaxHeartbeats: flagMaxHeartbeats,
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	out := flagTranscript
	if out == "" {
		out = transcript.RunID + ".json"
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	fmt.Printf("wrote transcript %s (%d heartbeats)\n", out, len(transcript.Heartbeats))

	if flagLedger != "" {
		store, err := ledger.Open(flagLedger)
		if err != nil {
			return err
		}
		defer store.Close()
		scenarioHash := ""
		if len(transcript.Heartbeats) > 0 {
			scenarioHash = transcript.Heartbeats[0].ScenarioHash
		}
		entry, err := store.Append(transcript.ScenarioID, transcript.RunID,
			cfg.AgentModel, scenarioHash, len(transcript.Heartbeats), data)
		if err != nil {
			return err
		}
		fmt.Printf("ledger entry %s recorded\n", entry.ID)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	pkg, err := runner.LoadScenario(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s OK — %d heartbeats, hash %s\n",
		filepath.Base(args[0]), len(pkg.Heartbeats), pkg.Manifest.ContentHash)
	return nil
}
