package main

import (
	"fmt"
	"os"
	"path/filepath"

	"docvest/cmd/docvest/chat"
	"docvest/cmd/docvest/ui"
	"docvest/internal/api"
	"docvest/internal/config"
	"docvest/internal/inbox"
	"docvest/internal/logging"
	"docvest/internal/persona"
	"docvest/internal/poll"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.3.0"

var (
	// Global flags
	configPath  string
	personaFlag string
	debug       bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "docvest",
	Short: "DocVest - chat with pitch decks and get investment analyses",
	Long: `DocVest is a terminal client for a document QA pipeline.

Upload PDF pitch decks to the processing backend, ask questions about
them through an investor persona, and request structured investment
analyses with a likelihood score and forecast.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docvest %s\n", version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.File()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		path, err := config.File()
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./.docvest.yaml or ~/.docvest/config.yaml)")
	rootCmd.Flags().StringVar(&personaFlag, "persona", "", "starting investor persona (e.g. value, growth, risk)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// runInteractive wires the backend client, the poll scheduler, and the
// optional inbox watcher into the TUI and blocks until it exits.
func runInteractive() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if debug {
		cfg.Debug = true
	}

	// The TUI owns stdout, so logs go to a file.
	logFile := cfg.LogFile
	if logFile == "" {
		dir, dirErr := config.Dir()
		if dirErr != nil {
			return dirErr
		}
		logFile = filepath.Join(dir, "docvest.log")
	}
	logging.Init(logFile, cfg.Debug)
	defer logging.Sync()

	log := logging.L("main")
	log.Info("starting", zap.String("version", version),
		zap.String("processing_url", cfg.ProcessingURL),
		zap.String("realtime_url", cfg.RealtimeURL))

	client := api.New(api.Config{
		ProcessingURL:     cfg.ProcessingURL,
		RealtimeURL:       cfg.RealtimeURL,
		ProcessingTimeout: cfg.ProcessingTimeout.Std(),
		RealtimeTimeout:   cfg.RealtimeTimeout.Std(),
		APIKey:            cfg.APIKey,
		Logger:            logging.L("api"),
	})

	startPersona := persona.General
	if personaFlag != "" {
		p, ok := persona.Parse(personaFlag)
		if !ok {
			return fmt.Errorf("unknown persona %q", personaFlag)
		}
		startPersona = p
	}

	var inboxEvents <-chan inbox.Event
	if cfg.InboxDir != "" {
		watcher, err := inbox.Watch(cfg.InboxDir, logging.L("inbox"))
		if err != nil {
			return fmt.Errorf("watch inbox %s: %w", cfg.InboxDir, err)
		}
		defer watcher.Close()
		inboxEvents = watcher.Events()
	}

	model := chat.New(chat.Options{
		Client:    client,
		Scheduler: poll.New(cfg.PollInterval.Std()),
		Styles:    ui.NewStyles(ui.ThemeFor(cfg.Theme)),
		Persona:   startPersona,
		Inbox:     inboxEvents,
		Logger:    logging.L("chat"),
		Version:   "v" + version,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()
	return err
}
