// Package main provides the CLI entrypoint for quickkeys.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/quickkeys/internal/config"
	"github.com/verte-zerg/quickkeys/internal/engine"
	"github.com/verte-zerg/quickkeys/internal/generator"
	"github.com/verte-zerg/quickkeys/internal/ledger"
	"github.com/verte-zerg/quickkeys/internal/logging"
	"github.com/verte-zerg/quickkeys/internal/model"
	"github.com/verte-zerg/quickkeys/internal/stats"
	"github.com/verte-zerg/quickkeys/internal/statsui"
	"github.com/verte-zerg/quickkeys/internal/store"
	"github.com/verte-zerg/quickkeys/internal/tui"
)

const (
	defaultFlashMs     = 200
	defaultStatsWindow = 10
	maxFlashMs         = 5000
)

var (
	playFlashMs int
	playNoSave  bool

	dbPath   string
	logLevel string

	statsSince  string
	statsLast   int
	statsWindow int

	resetHistory bool
)

var (
	scoreTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true)
	scoreBestStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")).Bold(true)
	scoreRowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0"))
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "quickkeys",
		Short:         "Terminal reaction-typing game",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.DefaultLevel, "log level (trace, debug, info, warn, error)")
	rootCmd.Flags().IntVar(&playFlashMs, "flash-ms", defaultFlashMs, "penalty flash duration in milliseconds")
	rootCmd.Flags().BoolVar(&playNoSave, "no-save", false, "keep scores in memory only")

	rootCmd.AddCommand(newScoresCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadSettings merges the config file into flags the user did not set.
func loadSettings(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Game.DBPath)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	if cmd.Flags().Lookup("flash-ms") != nil {
		applyIntConfig(cmd, "flash-ms", &playFlashMs, fileCfg.Game.FlashMs)
	}
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	return fileCfg, nil
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := validateFlashMs(playFlashMs); err != nil {
		return err
	}

	console := consoleLogger(cmd)
	logPath := config.DefaultLogPath()
	if fileCfg.Log.File != nil && *fileCfg.Log.File != "" {
		logPath = *fileCfg.Log.File
	}
	logger, closeLog, err := openGameLogger(logPath, logLevel, console)
	if err != nil {
		return err
	}
	defer closeLog()

	storage := openGameStorage(dbPath, playNoSave, logger)
	defer storage.close()
	if !playNoSave && !storage.persistent {
		console.Warn().Str("db", dbPath).Msg("scores will not be saved this session")
	}
	slots, history := storage.slots, storage.history

	rules := model.DefaultRules()
	eng := engine.New(rules, generator.New(rules.Alphabet), engine.SystemClock{},
		engine.WithFlashDelay(time.Duration(playFlashMs)*time.Millisecond))
	led := ledger.New(slots, logger)

	logger.Info().Str("db", dbPath).Bool("no_save", playNoSave).Int("flash_ms", playFlashMs).Msg("starting game")
	program := tea.NewProgram(tui.NewModel(eng, led, history, logger), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// gameStorage is where a play session records scores and history.
type gameStorage struct {
	slots      ledger.Storage
	history    tui.GameRecorder
	persistent bool
	close      func()
}

// openGameStorage opens the database at path. A database that cannot be
// opened degrades to in-memory slots without history.
func openGameStorage(path string, noSave bool, logger zerolog.Logger) gameStorage {
	memory := gameStorage{slots: store.NewMemory(), close: func() {}}
	if noSave {
		logger.Info().Msg("running without persistence")
		return memory
	}
	st, err := store.Open(path)
	if err != nil {
		logger.Warn().Err(err).Str("db", path).Msg("failed to open db; scores kept in memory")
		return memory
	}
	return gameStorage{
		slots:      st,
		history:    st,
		persistent: true,
		close:      func() { closeStore(st) },
	}
}

// openGameLogger returns a file logger. When the file cannot be opened the
// game still runs with logging disabled.
func openGameLogger(path, level string, console zerolog.Logger) (zerolog.Logger, func(), error) {
	if _, err := logging.ParseLevel(level); err != nil {
		return zerolog.Nop(), func() {}, err
	}
	logFile, err := logging.OpenFile(path)
	if err != nil {
		console.Warn().Err(err).Str("log", path).Msg("logging disabled")
		return zerolog.Nop(), func() {}, nil
	}
	logger, err := logging.New(logFile, level)
	if err != nil {
		_ = logFile.Close()
		return zerolog.Nop(), func() {}, err
	}
	return logger, func() {
		if cerr := logFile.Close(); cerr != nil {
			// Best-effort close of the log file.
			_ = cerr
		}
	}, nil
}

func newScoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "Print the best scores",
		Args:  cobra.NoArgs,
		RunE:  runScoresCmd,
	}
}

func runScoresCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	entries := ledger.New(st, consoleLogger(cmd)).Load(context.Background())
	styled := isTerminal(cmd.OutOrStdout())
	return writeScores(cmd.OutOrStdout(), entries, styled)
}

func writeScores(w io.Writer, entries []model.ScoreEntry, styled bool) error {
	lines := stats.FormatScores(entries)
	for i, line := range lines {
		if styled {
			switch {
			case len(entries) == 0:
			case i == 0:
				line = scoreTitleStyle.Render(line)
			case i == 1:
				line = scoreBestStyle.Render(line)
			default:
				line = scoreRowStyle.Render(line)
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse game history stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N games")
	cmd.Flags().IntVar(&statsWindow, "window", defaultStatsWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	cfg, err := buildStatsConfig(statsSince, statsLast, statsWindow)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func buildStatsConfig(since string, last, window int) (model.StatsConfig, error) {
	var sinceTime *time.Time
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if last < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if window <= 0 {
		return model.StatsConfig{}, fmt.Errorf("--window must be > 0")
	}
	return model.StatsConfig{Since: sinceTime, Last: last, Window: window}, nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the best scores",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetHistory, "history", false, "also delete game history")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadSettings(cmd); err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	ctx := context.Background()
	logger := consoleLogger(cmd)
	if err := ledger.New(st, logger).Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}
	logger.Info().Msg("cleared best scores")
	if resetHistory {
		if err := st.DeleteGames(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		logger.Info().Msg("cleared game history")
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# quickkeys configuration
# Uncomment a value to enable it. CLI flags override config values.
# Rounds, penalty and alphabet are fixed so scores stay comparable.

[game]
# flash-ms = %d           # Penalty flash duration in milliseconds
# db = %q

[log]
# level = %q             # trace, debug, info, warn, error
# file = %q
`,
		defaultFlashMs,
		config.DefaultDBPath(),
		logging.DefaultLevel,
		config.DefaultLogPath(),
	)
}

func validateFlashMs(ms int) error {
	if ms <= 0 || ms > maxFlashMs {
		return fmt.Errorf("--flash-ms must be between 1 and %d", maxFlashMs)
	}
	return nil
}

func consoleLogger(cmd *cobra.Command) zerolog.Logger {
	logger, err := logging.NewConsole(cmd.ErrOrStderr(), logLevel)
	if err != nil {
		fallback, _ := logging.NewConsole(cmd.ErrOrStderr(), logging.DefaultLevel)
		fallback.Warn().Err(err).Msg("using default log level")
		return fallback
	}
	return logger
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		// Best-effort close of the database.
		_ = cerr
	}
}
