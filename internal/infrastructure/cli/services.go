package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/carwash/internal/infrastructure/config"
	"github.com/felixgeelhaar/carwash/internal/infrastructure/logging"
	"github.com/felixgeelhaar/carwash/internal/infrastructure/wiring"
)

// loadConfig reads the layered configuration and applies the global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if socketURL != "" {
		cfg.SocketURL = socketURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func loadServices() (*wiring.Services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, NewCLIError("failed to load configuration", "Check the file given with --config", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, NewCLIError("invalid logging configuration", "Use log_level debug, info, warn or error", err)
	}
	services, err := wiring.BuildServices(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}
	return services, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// emit writes v as JSON when --json is set and calls text otherwise.
func emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), v)
	}
	text(cmd.OutOrStdout())
	return nil
}
