package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typespeed/internal/auth"
	"github.com/verte-zerg/typespeed/internal/config"
	"github.com/verte-zerg/typespeed/internal/logger"
	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/results"
	"github.com/verte-zerg/typespeed/internal/stats"
	"github.com/verte-zerg/typespeed/internal/statsui"
)

const (
	defaultStatsLast   = 10
	defaultCurveWindow = 5
	requestTimeout     = 15 * time.Second
)

var (
	statsDifficulty  string
	statsLast        int
	statsCurveWindow int
	statsInteractive bool

	boardDifficulty string
	boardLimit      int

	deleteConfirm bool

	tokenSecret string
	tokenTTL    time.Duration
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats and recent results",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsDifficulty, "difficulty", "", "difficulty filter for recent results")
	cmd.Flags().IntVar(&statsLast, "last", defaultStatsLast, "number of recent results")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVarP(&statsInteractive, "interactive", "i", false, "browse results in a TUI")
	addBackendFlags(cmd)
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if err := loadBackendConfig(cmd); err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("--username is required")
	}
	var difficulty model.Difficulty
	if statsDifficulty != "" {
		d, err := model.ParseDifficulty(statsDifficulty)
		if err != nil {
			return fmt.Errorf("--difficulty: %w", err)
		}
		difficulty = d
	}
	if statsLast < 0 || statsLast > results.MaxListLimit {
		return fmt.Errorf("--last must be between 0 and %d", results.MaxListLimit)
	}

	b, closeBackend, err := openBackend(logger.Nop())
	if err != nil {
		return err
	}
	defer closeBackend()

	if statsInteractive {
		m := statsui.NewModel(b, statsui.Config{
			Username:    username,
			Difficulty:  difficulty,
			Last:        statsLast,
			CurveWindow: statsCurveWindow,
		})
		program := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	filter := model.ResultFilter{Username: username, Difficulty: difficulty}
	report, err := stats.BuildReport(ctx, b, filter, statsLast)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderUserStats(out, report.Username, report.Stats); err != nil {
		return err
	}
	if report.Stats == nil {
		return nil
	}
	if err := stats.RenderCurve(out, report.Recent, statsCurveWindow, stats.CurveWidthFor(out)); err != nil {
		return err
	}
	newestFirst := make([]model.TestResult, len(report.Recent))
	for i, r := range report.Recent {
		newestFirst[len(report.Recent)-1-i] = r
	}
	return stats.RenderResults(out, "Recent results", newestFirst)
}

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top results",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().StringVar(&boardDifficulty, "difficulty", "", "difficulty filter")
	cmd.Flags().IntVar(&boardLimit, "limit", results.DefaultLeaderboardLimit, "number of entries")
	addBackendFlags(cmd)
	return cmd
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	if err := loadBackendConfig(cmd); err != nil {
		return err
	}
	var difficulty model.Difficulty
	if boardDifficulty != "" {
		d, err := model.ParseDifficulty(boardDifficulty)
		if err != nil {
			return fmt.Errorf("--difficulty: %w", err)
		}
		difficulty = d
	}

	b, closeBackend, err := openBackend(logger.Nop())
	if err != nil {
		return err
	}
	defer closeBackend()

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	board, err := b.Leaderboard(ctx, difficulty, boardLimit)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return stats.RenderLeaderboard(cmd.OutOrStdout(), board)
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete every result of a user",
		Args:  cobra.NoArgs,
		RunE:  runDeleteCmd,
	}
	cmd.Flags().BoolVar(&deleteConfirm, "yes", false, "confirm deletion")
	addBackendFlags(cmd)
	return cmd
}

func runDeleteCmd(cmd *cobra.Command, _ []string) error {
	if err := loadBackendConfig(cmd); err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("--username is required")
	}
	if !deleteConfirm {
		return fmt.Errorf("refusing to delete results of %s without --yes", username)
	}

	b, closeBackend, err := openBackend(logger.Nop())
	if err != nil {
		return err
	}
	defer closeBackend()

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	n, err := b.DeleteUserResults(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to delete results: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d results of %s.\n", n, username)
	return err
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Issue a bearer token for the results server",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenCmd,
	}
	cmd.Flags().StringVar(&tokenSecret, "jwt-secret", "", "HS256 secret (env "+jwtSecretEnv+")")
	cmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTTL, "token lifetime")
	return cmd
}

func runTokenCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "jwt-secret", &tokenSecret, fileCfg.Server.JWTSecret)
	if tokenSecret == "" {
		tokenSecret = os.Getenv(jwtSecretEnv)
	}
	if tokenSecret == "" {
		return fmt.Errorf("--jwt-secret is required")
	}
	name := args[0]
	if !results.ValidUsername(name) {
		return fmt.Errorf("username must be 3-20 letters, digits or underscores")
	}
	token, err := auth.NewJWTService(tokenSecret).GenerateToken(name, tokenTTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}

func loadBackendConfig(cmd *cobra.Command) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyBackendConfig(cmd, fileCfg)
	return nil
}
