package main

import (
	"fmt"
	"os"

	"ble-link.klederson.com/internal/app"
	"ble-link.klederson.com/internal/bluetooth"
	"ble-link.klederson.com/internal/config"
	"ble-link.klederson.com/internal/logging"
	"ble-link.klederson.com/internal/session"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	flagDemo        bool
	flagConfig      string
	flagAdapter     string
	flagLogFile     string
	flagLogLevel    string
	flagLogFormat   string
	flagShowUnnamed bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ble-link",
		Short: "BLE-LINK - Terminal Bluetooth Low Energy console",
		Long: `BLE-LINK scans for Bluetooth Low Energy peripherals, connects to one,
lists its services and characteristics, writes text to the first characteristic
that accepts writes with response and shows the notifications it pushes back.
A second screen carries a simulated RSSI chart and a placeholder heatmap.

Requires sudo or CAP_NET_ADMIN capability for real Bluetooth scanning.
Use --demo flag for demonstration mode without Bluetooth hardware.`,
		Version:      config.AppVersion,
		SilenceUsage: true,
		RunE:         run,
	}

	f := rootCmd.Flags()
	f.BoolVar(&flagDemo, "demo", false, "Run in demo mode with fake peripherals (no Bluetooth required)")
	f.StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	f.StringVar(&flagAdapter, "adapter", "hci0", "Bluetooth adapter to use")
	f.StringVar(&flagLogFile, "log-file", config.DefaultLogFile, `Log file path, or "stderr"`)
	f.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.StringVar(&flagLogFormat, "log-format", "text", "Log format: text or json")
	f.BoolVar(&flagShowUnnamed, "show-unnamed", false, "List devices that advertise no name")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Changed("adapter") {
		cfg.Adapter = flagAdapter
	}
	if f.Changed("log-file") {
		cfg.Log.File = flagLogFile
	}
	if f.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = flagLogFormat
	}
	if f.Changed("show-unnamed") {
		cfg.ShowUnnamed = flagShowUnnamed
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, config.AppVersion)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer closer.Close()

	var central bluetooth.Central
	if flagDemo {
		central = bluetooth.NewDemoCentral(bluetooth.DemoOptions{
			Peripherals:       bluetooth.DefaultDemoPeripherals(),
			AdvertiseInterval: config.DemoAdvertiseInterval,
			NotifyInterval:    config.DemoNotifyInterval,
		})
	} else {
		central = bluetooth.NewTinyGoCentral(cfg.Adapter, logger)
	}
	logger.Info("starting", "adapter", cfg.Adapter, "demo", flagDemo, "config", flagConfig)

	ctrl := session.New(central, session.Options{
		ScanWindow:       cfg.ScanWindow,
		ExcludedServices: cfg.ExcludedServices,
		Logger:           logger,
	})

	model := app.New(app.Options{
		Controller:    ctrl,
		Adapter:       cfg.Adapter,
		Demo:          flagDemo,
		ShowUnnamed:   cfg.ShowUnnamed,
		ChartInterval: cfg.ChartInterval,
		Logger:        logger,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithFPS(30),
	)

	// Route controller changes to the program before it starts.
	model.Attach(p)

	_, err = p.Run()

	// The program has stopped, so state changes no longer reach it.
	ctrl.Close()
	logger.Info("stopped")
	return err
}
