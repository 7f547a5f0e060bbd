// Package main provides the CLI entrypoint for typespeed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typespeed/internal/client"
	"github.com/verte-zerg/typespeed/internal/config"
	"github.com/verte-zerg/typespeed/internal/generator"
	"github.com/verte-zerg/typespeed/internal/logger"
	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/results"
	"github.com/verte-zerg/typespeed/internal/store"
	"github.com/verte-zerg/typespeed/internal/tracker"
	"github.com/verte-zerg/typespeed/internal/tui"
	"github.com/verte-zerg/typespeed/internal/wordlist"
)

const (
	defaultDuration   = 1
	defaultDifficulty = string(model.DifficultyMedium)
	tokenEnv          = "TYPESPEED_TOKEN"
)

var (
	practiceDuration   int
	practiceDifficulty string
	practiceWords      int
	practiceWordFile   string

	// Shared by every command that reads or writes results.
	remoteServer string
	remoteToken  string
	username     string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typespeed",
		Short:         "Timed typing test with a results server",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().IntVar(&practiceDuration, "duration", defaultDuration, "test length in minutes (1, 3 or 5)")
	rootCmd.Flags().StringVar(&practiceDifficulty, "difficulty", defaultDifficulty, "easy, medium or hard")
	rootCmd.Flags().IntVar(&practiceWords, "words", generator.DefaultWordCount, "words per text")
	rootCmd.Flags().StringVar(&practiceWordFile, "word-file", "", "word list file, one word per line (default: built-in)")
	addBackendFlags(rootCmd)

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&username, "username", "", "username results are recorded under")
	cmd.Flags().StringVar(&remoteServer, "server", "", "results server URL (default: local database)")
	cmd.Flags().StringVar(&remoteToken, "token", "", "bearer token for the results server (env "+tokenEnv+")")
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "duration", &practiceDuration, fileCfg.Practice.Duration)
	applyStringConfig(cmd, "difficulty", &practiceDifficulty, fileCfg.Practice.Difficulty)
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Practice.Words)
	applyStringConfig(cmd, "word-file", &practiceWordFile, fileCfg.Practice.WordFile)
	applyBackendConfig(cmd, fileCfg)

	cfg, err := practiceConfig()
	if err != nil {
		return err
	}

	words, err := wordlist.Load(cfg.WordFile, cfg.Difficulty)
	if err != nil {
		return fmt.Errorf("failed to load word list: %w", err)
	}

	logPath := config.DefaultLogPath()
	if err := config.EnsureDir(logPath); err != nil {
		return err
	}
	log, err := logger.NewFile("prod", logPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	b, closeBackend, err := openBackend(log)
	if err != nil {
		return err
	}
	defer closeBackend()

	m, err := tui.NewModel(cfg, b, generator.New(), words, log)
	if err != nil {
		return err
	}
	log.Info("practice started", "difficulty", cfg.Difficulty, "duration", cfg.Duration.String(), "remote", remoteServer != "")
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func practiceConfig() (model.PracticeConfig, error) {
	duration := time.Duration(practiceDuration) * time.Minute
	if !tracker.ValidDuration(duration) {
		return model.PracticeConfig{}, fmt.Errorf("--duration must be 1, 3 or 5")
	}
	difficulty, err := model.ParseDifficulty(practiceDifficulty)
	if err != nil {
		return model.PracticeConfig{}, fmt.Errorf("--difficulty: %w", err)
	}
	if practiceWords <= 0 {
		return model.PracticeConfig{}, fmt.Errorf("--words must be > 0")
	}
	if username != "" && !results.ValidUsername(username) {
		return model.PracticeConfig{}, fmt.Errorf("--username must be 3-20 letters, digits or underscores")
	}
	return model.PracticeConfig{
		Duration:   duration,
		Difficulty: difficulty,
		Words:      practiceWords,
		Username:   username,
		WordFile:   practiceWordFile,
		Server:     remoteServer,
		Token:      remoteToken,
	}, nil
}

// backend is where results are read and written: the local database or a
// remote server.
type backend interface {
	Create(ctx context.Context, in model.NewTestResult) (*model.TestResult, error)
	UserStats(ctx context.Context, username string) (*model.UserStats, error)
	ListResults(ctx context.Context, filter model.ResultFilter, limit, offset int) (*model.ResultPage, error)
	Leaderboard(ctx context.Context, difficulty model.Difficulty, limit int) ([]model.TestResult, error)
	DeleteUserResults(ctx context.Context, username string) (int64, error)
}

// localBackend adapts the results service to the client call shapes.
type localBackend struct {
	*results.Service
}

func (l localBackend) Leaderboard(ctx context.Context, difficulty model.Difficulty, limit int) ([]model.TestResult, error) {
	return l.Service.Leaderboard(ctx, results.LeaderboardRequest{Difficulty: difficulty, Limit: limit})
}

func openBackend(log *logger.Logger) (backend, func(), error) {
	if remoteServer != "" {
		c, err := client.New(client.Config{BaseURL: remoteServer, Token: remoteToken})
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
	st, err := store.Open(store.DriverSQLite, config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return localBackend{results.NewService(results.Config{Store: st, Logger: log})}, closeFn, nil
}

func applyBackendConfig(cmd *cobra.Command, fileCfg config.FileConfig) {
	applyStringConfig(cmd, "username", &username, fileCfg.Practice.Username)
	applyStringConfig(cmd, "server", &remoteServer, fileCfg.Practice.Server)
	applyStringConfig(cmd, "token", &remoteToken, fileCfg.Practice.Token)
	if remoteToken == "" {
		remoteToken = os.Getenv(tokenEnv)
	}
}

func newConfigCmd() *cobra.Command {
	var printPath bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigCmd(cmd, printPath)
		},
	}
	cmd.Flags().BoolVar(&printPath, "path", false, "only print the config path")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, printPath bool) error {
	path := config.DefaultConfigPath()
	created, err := config.EnsureFile(path)
	if err != nil {
		return err
	}
	if printPath {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	}
	if created {
		logErrf("Created %s\n", path)
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	editCmd := exec.Command(parts[0], append(parts[1:], path)...)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	if err := editCmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applySliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
