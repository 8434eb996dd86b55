package cmd

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/josephlewis42/pipesh/core"
	"github.com/josephlewis42/pipesh/core/config"
	"github.com/josephlewis42/pipesh/core/logger"
	"github.com/josephlewis42/pipesh/core/proc"
	"github.com/josephlewis42/pipesh/core/vos"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	logLevel    string
	commandLine string
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pipesh")
}

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		return !color.NoColor && core.IsTerminal(w)
	}
}

// stageHelper is the command line that starts a stage process.
func stageHelper() ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return []string{exe, stageCmd.Name()}, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pipesh",
	Short: "Pipeline shell",
	Long: `A minimal line oriented shell that runs pipelines of programs with
input (<) and output (>) redirection, pipes (|) and background jobs (&).`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.LoadOrDefault(cfgPath)
		if err != nil {
			return err
		}

		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}

		var appLog io.Writer
		if cfg.Persistent() {
			fd, err := cfg.OpenAppLog()
			if err != nil {
				return err
			}
			defer fd.Close()
			appLog = fd
		}
		diagnostics := logger.NewDiagnostics(cmd.ErrOrStderr(), appLog, level)

		helper, err := stageHelper()
		if err != nil {
			return err
		}

		host := vos.NewHostOS()
		launcher := proc.NewLauncher(helper, cfg.Reap(), host, diagnostics)

		sh := core.NewShell(host, nil, launcher)
		sh.Limits = cfg.Limits
		sh.PromptTemplate = cfg.Prompt
		sh.Color = colorEnabled(cfg.Color, os.Stderr)
		sh.Log = diagnostics

		if cfg.Persistent() && cfg.EventLog {
			fd, err := cfg.OpenEventLog()
			if err != nil {
				return err
			}
			defer fd.Close()
			session := logger.NewJsonLinesLogRecorder(fd).NewSession()
			diagnostics.Debug("recording events", "session", session.SessionID())
			sh.Events = session
		}

		if cmd.Flags().Changed("command") {
			if err := sh.Init(); err != nil {
				return err
			}
			return sh.RunLine(commandLine)
		}

		input, err := core.NewLineReader(host, cfg.HistoryPath(), cfg.Limits)
		if err != nil {
			return err
		}
		defer input.Close()
		sh.Input = input

		if core.IsTerminal(host.Stdin()) {
			sh.PrintBanner()
		}
		return sh.Run()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "diagnostic log level: debug, info, warn or error")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single line and exit")
}
