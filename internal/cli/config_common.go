package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgload/internal/config"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// defaultEnvFile is loaded when present and --env-file is not given.
const defaultEnvFile = ".env"

// loadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. An explicitly named file must exist.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %v: %w", path, err, pgload.ErrInvalidConfig)
	}
	return nil
}

// loadProjectConfig loads pgload.yaml. path overrides the default ./pgload.yaml.
// Returns nil config if the default file does not exist (not an error);
// an explicitly named file must exist.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	var (
		projectCfg *config.ProjectConfig
		err        error
	)
	if path != "" {
		projectCfg, err = config.LoadFile(path)
	} else {
		projectCfg, err = config.Load(".")
	}

	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && path == "" {
			return nil, nil // Config file not found is not an error
		}
		if path == "" {
			path = config.ConfigFileName
		}
		return nil, fmt.Errorf("failed to load %s: %v: %w", path, err, pgload.ErrInvalidConfig)
	}
	return projectCfg, nil
}

// resolveString returns the flag value when the flag was set or the config has nothing,
// the config value otherwise.
func resolveString(cmd *cobra.Command, name, flagValue, configValue string) string {
	if cmd.Flags().Changed(name) || configValue == "" {
		return flagValue
	}
	return configValue
}

// resolveEffectiveTimeout returns the effective timeout, preferring pgload.yaml if flag wasn't set.
func resolveEffectiveTimeout(cmd *cobra.Command, projectCfg *config.ProjectConfig, flagTimeout time.Duration) (time.Duration, error) {
	if projectCfg != nil && projectCfg.Timeout != "" && !cmd.Flags().Changed("timeout") {
		d, err := projectCfg.TimeoutDuration()
		if err != nil {
			return 0, fmt.Errorf("%s: %v: %w", config.ConfigFileName, err, pgload.ErrInvalidConfig)
		}
		return d, nil
	}
	return flagTimeout, nil
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(logger pgload.Logger, connConfig *pgload.ConnectionConfig) {
	logger.Verbose("Connection resolved:")
	logger.Verbose("  Host: %s", connConfig.Host)
	logger.Verbose("  Port: %d", connConfig.Port)
	logger.Verbose("  User: %s", connConfig.Username)
	logger.Verbose("  Database: %s", connConfig.Database)
	logger.Verbose("  SSL Mode: %s", connConfig.SSLMode)
	logger.Verbose("  Auth Method: %s", connConfig.AuthMethod)
}
