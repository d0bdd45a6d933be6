// Package cmd provides the CLI commands for studia.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/okutan/studia/internal/export"
	"github.com/okutan/studia/internal/store"
	"github.com/okutan/studia/internal/tui"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var flagDB string

func openStore() (*store.Store, error) {
	path := flagDB
	if path == "" {
		path = store.DefaultDBPath()
	}
	return store.New(path)
}

// rootCmd launches the TUI when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "studia",
	Short: "A study tracker for subjects, tasks and timed sessions",
	Long: `Studia tracks what you study: subjects with goal minutes, tasks with
due dates, and timed study sessions, all in a terminal dashboard.

Examples:
  studia
  studia --db /tmp/scratch.db
  studia export --format json`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		app := tui.NewApp(s)
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return err
		}
		return nil
	},
}

var flagExportFormat string
var flagExportOut string

// exportCmd writes every recorded session to a file without opening
// the TUI, for scripting and backups.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all study sessions to CSV or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		sessions, err := s.ListRecentSessions(0)
		if err != nil {
			return err
		}

		path := flagExportOut
		if path == "" {
			home, _ := os.UserHomeDir()
			dateStr := time.Now().Format("2006-01-02")
			path = filepath.Join(home, fmt.Sprintf("studia-export-%s.%s", dateStr, flagExportFormat))
		}

		switch flagExportFormat {
		case "csv":
			err = export.ToCSV(sessions, path)
		case "json":
			err = export.ToJSON(sessions, path)
		default:
			return fmt.Errorf("unknown format %q (want csv or json)", flagExportFormat)
		}
		if err != nil {
			return err
		}

		cmd.Printf("Exported %d sessions to %s\n", len(sessions), path)
		return nil
	},
}

// settingsCmd prints the stored settings, for checking what the TUI's
// adjustments persisted.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "List stored settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		settings, err := s.GetAllSettings()
		if err != nil {
			return err
		}
		for _, st := range settings {
			cmd.Printf("%s = %s\n", st.Key, st.Value)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("studia %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "",
		"Path to the database file (default: XDG data dir)")

	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "csv",
		"Export format: csv, json")
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "",
		"Output path (default: ~/studia-export-<date>.<ext>)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(versionCmd)
}
