package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/iotlab/internal/app"
	"github.com/abhisek/iotlab/internal/assist"
	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/scenario"
	"github.com/abhisek/iotlab/internal/session"
	"github.com/abhisek/iotlab/internal/upload"
)

var playCmd = &cobra.Command{
	Use:   "play [circuit|crisis]",
	Short: "Start a play session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := scenario.KindCircuit
		if len(args) == 1 {
			mode = scenario.Kind(strings.ToLower(args[0]))
		}
		if mode != scenario.KindCircuit && mode != scenario.KindCrisis {
			return fmt.Errorf("invalid mode %q: must be circuit or crisis", args[0])
		}
		id, _ := cmd.Flags().GetString("scenario")
		seed, _ := cmd.Flags().GetUint64("seed")
		return runPlay(cmd, mode, id, seed)
	},
}

func init() {
	playCmd.Flags().String("scenario", "", "Scenario ID to start with (default: first of the mode)")
	playCmd.Flags().Uint64("seed", 0, "Seed for scenario randomization (0 = random)")
}

// runPlay opens the store, starts a session and launches the TUI.
func runPlay(cmd *cobra.Command, mode scenario.Kind, scenarioID string, seed uint64) error {
	ctx := cmd.Context()

	bank, err := loadBank()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	dbPath, _ := resolveDBPath()
	log, closer, err := fileLogger(dbPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closer.Close()

	rnd := scenario.NewRandomizer(nil)
	if seed != 0 {
		rnd = scenario.NewSeededRandomizer(seed)
	}

	uploadCfg := upload.DefaultConfig()
	uploadCfg.URL = cfg.Upload.URL
	uploadCfg.Timeout = cfg.Upload.Timeout
	uploadCfg.Retry.MaxAttempts = cfg.Upload.MaxAttempts
	uploadCfg.Retry.InitialWait = cfg.Upload.InitialWait
	uploadCfg.Retry.MaxWait = cfg.Upload.MaxWait

	pcfg := progression.DefaultConfig()
	pcfg.MaxAttempts = cfg.Play.MaxAttempts

	acfg := assist.DefaultConfig()
	acfg.InactivityWindow = cfg.Play.InactivityWindow
	acfg.BonusSeconds = int(cfg.Play.AssistBonus.Seconds())

	sess, err := session.Start(ctx, mode, scenarioID, session.Options{
		Bank:        bank,
		Randomizer:  rnd,
		Events:      st.EventRepo(),
		Snapshots:   st.SnapshotRepo(),
		Uploader:    upload.NewClient(uploadCfg, log),
		Progression: pcfg,
		Assist:      acfg,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	if err := app.Run(sess); err != nil {
		return err
	}

	// Ctrl+C skips the summary screen; close the session here instead.
	if !sess.Ended() {
		sum, err := sess.End(ctx)
		if err != nil {
			return err
		}
		printSummary(cmd, sum)
	}
	return nil
}

func printSummary(cmd *cobra.Command, sum *session.Summary) {
	out := cmd.OutOrStdout()
	rep := sum.Report
	fmt.Fprintf(out, "Session %s: %d attempts, %d solved, XP %d, stability %d\n",
		sum.SessionID, rep.Total, rep.Solved, sum.TotalXP, sum.Stability)
	for _, line := range rep.Insights {
		fmt.Fprintln(out, "  -", line)
	}
}
