package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	ProjectName    = "bms-service"
	ProjectVersion = "1.0.0"
)

var (
	version         bool
	configFile      string
	logLevel        int
	redisServer     string
	redisPort       int
	canDevice       string
	telemetryPeriod time.Duration
	statusTimeout   time.Duration
	pollInterval    time.Duration
)

var rootCmd = &cobra.Command{
	Use:          ProjectName,
	Short:        "Mirror a battery management controller from CAN into Redis",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	defaults := DefaultOptions()

	flags := rootCmd.Flags()
	flags.BoolVar(&version, "version", false, "Print version info")
	flags.StringVar(&configFile, "config", "", "INI config file, flags given explicitly take precedence")
	flags.IntVar(&logLevel, "log", int(defaults.LogLevel), "Log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flags.StringVar(&redisServer, "redis_server", defaults.RedisServerAddr, "Redis server address")
	flags.IntVar(&redisPort, "redis_port", int(defaults.RedisServerPort), "Redis server port")
	flags.StringVar(&canDevice, "can_device", defaults.CANDevice, "CAN device name")
	flags.DurationVar(&telemetryPeriod, "telemetry_period", defaults.TelemetryPeriod, "Telemetry refresh period")
	flags.DurationVar(&statusTimeout, "status_timeout", defaults.StatusTimeout, "Status frame timeout before the mirror is reported stale")
	flags.DurationVar(&pollInterval, "poll_interval", defaults.PollInterval, "Polling loop tick interval")
}

func printVersion() {
	fmt.Printf("%s v%s\n", ProjectName, ProjectVersion)
}

// buildOptions layers defaults, the config file and explicitly set flags.
func buildOptions(cmd *cobra.Command) (Options, error) {
	opts := DefaultOptions()

	if configFile != "" {
		if err := LoadConfigFile(configFile, &opts); err != nil {
			return opts, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log") {
		opts.LogLevel = LogLevel(logLevel)
	}
	if flags.Changed("redis_server") {
		opts.RedisServerAddr = redisServer
	}
	if flags.Changed("redis_port") {
		if redisPort < 0 || redisPort > 0xFFFF {
			return opts, fmt.Errorf("invalid redis port %d", redisPort)
		}
		opts.RedisServerPort = uint16(redisPort)
	}
	if flags.Changed("can_device") {
		opts.CANDevice = canDevice
	}
	if flags.Changed("telemetry_period") {
		opts.TelemetryPeriod = telemetryPeriod
	}
	if flags.Changed("status_timeout") {
		opts.StatusTimeout = statusTimeout
	}
	if flags.Changed("poll_interval") {
		opts.PollInterval = pollInterval
	}

	return opts, opts.Validate()
}

func run(cmd *cobra.Command, args []string) error {
	if version {
		printVersion()
		return nil
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	// Handle SIGINT and SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewBMSApp(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to create BMS app: %w", err)
	}
	defer app.Destroy()

	return app.Run(ctx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
