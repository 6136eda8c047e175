// Command sheets edits JSON workbook files from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/internal/config"
	"github.com/vogtb/go-spreadsheet/internal/logging"
)

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		errStyle := lipgloss.NewRenderer(os.Stderr).NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
		fmt.Fprintf(os.Stderr, "%s %s\n", errStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

// app holds the settings shared by every command.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath   string
	workbookPath string
	dbPath       string
	logLevel     string
	logFormat    string
	color        string

	cfg config.Config
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "sheets",
		Short:         "Edit spreadsheet workbooks stored as JSON",
		Long:          "sheets edits multi-sheet workbooks with formulas, recalculating dependent cells on every change.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		// no Run, prints help
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.DefaultFile, "config file path")
	flags.StringVarP(&a.workbookPath, "workbook", "w", "", "workbook JSON path (default from config)")
	flags.StringVar(&a.dbPath, "db", "", "snapshot database path (default from config)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text|json")
	flags.StringVar(&a.color, "color", "", "colour output: auto|always|never")

	root.AddCommand(
		a.newCmd(),
		a.sheetCmd(),
		a.setCmd(),
		a.getCmd(),
		a.showCmd(),
		a.copyRangeCmd(),
		a.moveRangeCmd(),
		a.sortCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.snapshotCmd(),
	)
	return root
}

// setup merges the config file with flags and installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.workbookPath != "" {
		cfg.Workbook = a.workbookPath
	}
	if a.dbPath != "" {
		cfg.SnapshotDB = a.dbPath
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.color != "" {
		cfg.Color = a.color
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, a.errOut)
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

func loggerFrom(cmd *cobra.Command) *slog.Logger {
	return logging.FromContext(cmd.Context())
}
