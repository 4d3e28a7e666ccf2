package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/slycke/go-warmup/internal/config"
	"github.com/slycke/go-warmup/internal/logging"
	"github.com/slycke/go-warmup/pkg/warmup"
)

const commandTimeout = 30 * time.Second

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(tempCmd)
	rootCmd.AddCommand(overrideCmd)
	rootCmd.AddCommand(frostCmd)
	rootCmd.AddCommand(serveCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of every room",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := parseOutput(outputFormat)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		client := getClient(ctx)
		defer client.Close()

		return out.printStatuses(os.Stdout, client.Statuses())
	},
}

var modeCmd = &cobra.Command{
	Use:   "mode [room-id] [off|heat|auto]",
	Short: "Set the mode of a room",
	Long: `Set the canonical mode of a room.

  off   switches the whole location off
  heat  holds the room at its fixed setpoint
  auto  returns the room to its schedule`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomID(args[0])
		if err != nil {
			return err
		}
		mode, err := warmup.ParseMode(args[1])
		if err != nil {
			return err
		}

		return runCommand(cmd, func(ctx context.Context, client *warmup.Client) (*warmup.Response, error) {
			return client.SetMode(ctx, roomID, mode)
		})
	},
}

var tempCmd = &cobra.Command{
	Use:   "temp [room-id] [celsius]",
	Short: "Set the target temperature of a room",
	Long: `Set the target temperature of a room. A room on its schedule gets a timed
override; a room in fixed mode gets a new fixed setpoint.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, celsius, err := parseRoomAndTemp(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, func(ctx context.Context, client *warmup.Client) (*warmup.Response, error) {
			return client.SetTargetTemperature(ctx, roomID, celsius)
		})
	},
}

var overrideCmd = &cobra.Command{
	Use:   "override [room-id] [celsius]",
	Short: "Start a timed temperature override",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, celsius, err := parseRoomAndTemp(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, func(ctx context.Context, client *warmup.Client) (*warmup.Response, error) {
			return client.SetOverride(ctx, roomID, celsius)
		})
	},
}

var frostCmd = &cobra.Command{
	Use:   "frost [room-id]",
	Short: "Switch the location to frost protection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomID(args[0])
		if err != nil {
			return err
		}
		return runCommand(cmd, func(ctx context.Context, client *warmup.Client) (*warmup.Response, error) {
			return client.SetLocationToFrost(ctx, roomID)
		})
	},
}

func runCommand(cmd *cobra.Command, fn func(context.Context, *warmup.Client) (*warmup.Response, error)) error {
	out, err := parseOutput(outputFormat)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	client := getClient(ctx)
	defer client.Close()

	resp, err := fn(ctx, client)
	if err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return out.printResponse(os.Stdout, resp)
}

func parseRoomID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid room id '%s': must be a positive number", arg)
	}
	return id, nil
}

func parseRoomAndTemp(args []string) (int, float64, error) {
	roomID, err := parseRoomID(args[0])
	if err != nil {
		return 0, 0, err
	}
	celsius, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid temperature '%s': must be a number", args[1])
	}
	return roomID, celsius, nil
}

// loadConfig reads and validates the configuration and builds the logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)
	return cfg, logger, nil
}

// getClient returns a started client or exits.
func getClient(ctx context.Context) *warmup.Client {
	cfg, logger, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client, err := warmup.NewClient(cfg.Username, cfg.Password, cfg.ClientOptions(logger)...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating client: %v\n", err)
		os.Exit(1)
	}

	if _, err := client.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to Warmup: %v\n", err)
		os.Exit(1)
	}
	return client
}
