// Package main provides the CLI entrypoint for triviadash.
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/triviadash/internal/config"
	"github.com/verte-zerg/triviadash/internal/dashboard"
	"github.com/verte-zerg/triviadash/internal/logger"
	"github.com/verte-zerg/triviadash/internal/model"
	"github.com/verte-zerg/triviadash/internal/opentdb"
	"github.com/verte-zerg/triviadash/internal/store"
	"github.com/verte-zerg/triviadash/internal/ui"
)

const dotEnvPath = ".env"

var (
	flagBaseURL    string
	flagTimeout    time.Duration
	flagDelay      time.Duration
	flagDBPath     string
	flagNoHistory  bool
	flagVerbose    bool
	flagMode       string
	flagSampleSize int
	flagLogFile    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "triviadash",
		Short:         "Open Trivia DB question dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runDashboardCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagBaseURL, "base-url", opentdb.DefaultBaseURL, "trivia API base URL")
	pf.DurationVar(&flagTimeout, "timeout", opentdb.DefaultTimeout, "per-request timeout (0 disables)")
	pf.DurationVar(&flagDelay, "delay", opentdb.DefaultRequestDelay, "delay between category count requests")
	pf.StringVar(&flagDBPath, "db", config.DefaultDBPath(), "snapshot history database")
	pf.BoolVar(&flagNoHistory, "no-history", false, "do not record snapshots")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log debug and info messages")

	rootCmd.Flags().StringVar(&flagMode, "mode", model.ModeDatabase.String(), "initial mode (database or sample)")
	rootCmd.Flags().IntVar(&flagSampleSize, "sample-size", dashboard.DefaultSampleSize, "questions per sample analysis (10-50)")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "write dashboard logs to this file")

	rootCmd.AddCommand(newCategoriesCmd())
	rootCmd.AddCommand(newCountsCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	log := logger.Discard()
	if settings.LogFile != "" {
		f, err := tea.LogToFile(settings.LogFile, "")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logErrf("failed to close log file: %v\n", cerr)
			}
		}()
		log = logger.New("triviadash", f, settings.Verbose)
	}

	client, err := newClient(settings, log)
	if err != nil {
		return err
	}

	var recorder ui.SnapshotRecorder
	st, err := openStore(settings)
	if err != nil {
		return err
	}
	if st != nil {
		defer closeStore(st)
		recorder = st
	}

	state := dashboard.NewState(settings.Mode, settings.SampleSize)
	loader := dashboard.NewLoader(client, state, log)
	m := ui.NewModel(cmd.Context(), ui.Options{Loader: loader, Recorder: recorder, Logger: log})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

// resolveSettings layers .env, the config file and flags. Flags set on the
// command line always win.
func resolveSettings(cmd *cobra.Command) (model.Settings, error) {
	if err := config.LoadDotEnv(dotEnvPath); err != nil {
		return model.Settings{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&fileCfg)

	applyStringConfig(cmd, "base-url", &flagBaseURL, fileCfg.API.BaseURL)
	if err := applyDurationConfig(cmd, "timeout", &flagTimeout, fileCfg.API.Timeout); err != nil {
		return model.Settings{}, err
	}
	if err := applyDurationConfig(cmd, "delay", &flagDelay, fileCfg.API.Delay); err != nil {
		return model.Settings{}, err
	}
	applyStringConfig(cmd, "mode", &flagMode, fileCfg.Dashboard.Mode)
	applyIntConfig(cmd, "sample-size", &flagSampleSize, fileCfg.Dashboard.SampleSize)
	applyStringConfig(cmd, "log-file", &flagLogFile, fileCfg.Dashboard.LogFile)
	applyBoolConfig(cmd, "no-history", &flagNoHistory, fileCfg.History.Disabled)
	applyStringConfig(cmd, "db", &flagDBPath, fileCfg.History.DBPath)

	mode, err := model.ParseMode(flagMode)
	if err != nil {
		return model.Settings{}, fmt.Errorf("--mode: %w", err)
	}
	settings := model.Settings{
		BaseURL:      strings.TrimSpace(flagBaseURL),
		Timeout:      flagTimeout,
		RequestDelay: flagDelay,
		SampleSize:   flagSampleSize,
		Mode:         mode,
		LogFile:      expandHome(flagLogFile),
		DBPath:       expandHome(flagDBPath),
		NoHistory:    flagNoHistory,
		Verbose:      flagVerbose,
	}
	if err := validateSettings(settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func validateSettings(s model.Settings) error {
	if s.SampleSize < dashboard.MinSampleSize || s.SampleSize > dashboard.MaxSampleSize {
		return fmt.Errorf("--sample-size must be between %d and %d", dashboard.MinSampleSize, dashboard.MaxSampleSize)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("--timeout must be >= 0")
	}
	if s.RequestDelay < 0 {
		return fmt.Errorf("--delay must be >= 0")
	}
	parsed, err := url.Parse(s.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("--base-url must be an http(s) URL")
	}
	if !s.NoHistory && s.DBPath == "" {
		return fmt.Errorf("--db must not be empty")
	}
	return nil
}

func newClient(s model.Settings, log *logger.Logger) (*opentdb.Client, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = -1
	}
	delay := s.RequestDelay
	if delay == 0 {
		delay = -1
	}
	client, err := opentdb.New(opentdb.Options{
		BaseURL:      s.BaseURL,
		Timeout:      timeout,
		RequestDelay: delay,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// openStore returns nil when history is disabled.
func openStore(s model.Settings) (*store.Store, error) {
	if s.NoHistory {
		return nil, nil
	}
	st, err := store.Open(s.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func cliLogger(s model.Settings) *logger.Logger {
	return logger.New("triviadash", os.Stderr, s.Verbose)
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

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = parsed
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# triviadash configuration
# Uncomment a value to enable it. Environment variables override the file,
# CLI flags override both.

[api]
# base-url = %q   # Trivia API host (env %s)
# timeout = %q            # Per-request timeout
# delay = %q            # Delay between category count requests

[dashboard]
# mode = "database"       # database or sample
# sample-size = %d        # Questions per sample analysis (10-50)
# log-file = %q

[history]
# disabled = false        # Do not record snapshots
# db = %q  # Snapshot database (env %s)
`,
		opentdb.DefaultBaseURL,
		config.EnvBaseURL,
		opentdb.DefaultTimeout,
		opentdb.DefaultRequestDelay,
		dashboard.DefaultSampleSize,
		config.DefaultLogPath(),
		config.DefaultDBPath(),
		config.EnvDBPath,
	)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func writeOut(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
