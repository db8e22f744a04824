package cmd

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sabaqlab/sabaq/internal/app"
	"github.com/sabaqlab/sabaq/internal/config"
	"github.com/sabaqlab/sabaq/internal/logger"
	"github.com/sabaqlab/sabaq/internal/store"
)

// tuiAnnotation marks commands that take over the terminal; their logs go
// to a file unless --log-file says otherwise.
const tuiAnnotation = "tui"

var (
	cfg       config.Config
	logCloser io.Closer
	envFile   string
)

var rootCmd = &cobra.Command{
	Use:   "sabaq",
	Short: "Take timed assessments from the terminal",
	Long: "sabaq loads a timed multiple-choice assessment, counts down while you answer, " +
		"and submits your answers when you finish or time runs out. Answers are saved " +
		"locally before every submission so a failed attempt can be sent again.",
	Annotations:   map[string]string{tuiAnnotation: "true"},
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile, cmd.Flags())
		if err != nil {
			return err
		}

		logFile := cfg.LogFile
		if logFile == "" && ownsTerminal(cmd) {
			dir, err := store.DataDir()
			if err != nil {
				return err
			}
			logFile = filepath.Join(dir, "sabaq.log")
		}
		logCloser, err = logger.Init(cfg.LogLevel, logFile)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cfg)
		if err != nil {
			return err
		}
		defer d.Close()
		return app.Run(d.appOptions("", ""))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")
	pf.String("db", "", "Path to SQLite database file (overrides SABAQ_DB)")
	pf.String("base-url", "", "Assessment service base URL (overrides SABAQ_BASE_URL)")
	pf.String("token", "", "Bearer token (overrides SABAQ_TOKEN and the saved login)")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error")
	pf.String("log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(devServerCmd)
	rootCmd.AddCommand(versionCmd)
}

// ownsTerminal reports whether cmd runs the full-screen UI.
func ownsTerminal(cmd *cobra.Command) bool {
	if cmd.Annotations[tuiAnnotation] != "true" {
		return false
	}
	headless, _ := cmd.Flags().GetBool("headless")
	return !headless
}
