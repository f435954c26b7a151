// Package requestcmd holds the cobra commands of bxd-request.
package requestcmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	gobxd "github.com/sirosfoundation/go-bxd"
	"github.com/sirosfoundation/go-bxd/internal/config"
)

const (
	// ConfigFlagName is the flag name for the configuration file.
	ConfigFlagName = "config"

	// ConfigFlagShorthand is the flag shorthand for the configuration file.
	ConfigFlagShorthand = "c"

	// ConfigFlagUsage is the usage text for the configuration file flag.
	ConfigFlagUsage = "Path to the YAML configuration file"

	// LogLevelFlagName is the flag name for the log level.
	LogLevelFlagName = "log-level"

	// LogLevelFlagUsage is the usage text for the log level flag.
	LogLevelFlagUsage = "Log level (debug, info, warn, error); overrides logging.level"
)

// NewRootCmd returns the bxd-request command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bxd-request",
		Short:        "Build and verify signed bxd.fi ApplicationRequests",
		Version:      gobxd.Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringP(ConfigFlagName, ConfigFlagShorthand, "", ConfigFlagUsage)
	root.PersistentFlags().String(LogLevelFlagName, "", LogLevelFlagUsage)

	root.AddCommand(newBuildCmd(), newVerifyCmd(), newFingerprintsCmd())
	return root
}

// loadConfig reads the file named by --config. It fails when the flag is
// unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(ConfigFlagName)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("--%s is required", ConfigFlagName)
	}
	return config.Load(path)
}

// newLogger creates the command's logger. The level comes from --log-level
// when set, otherwise from cfg. cfg may be nil.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	logging := config.LoggingConfig{Level: "info", Format: "text"}
	if cfg != nil {
		logging = cfg.Logging
	}

	level := logging.SlogLevel()
	if flag, _ := cmd.Flags().GetString(LogLevelFlagName); flag != "" {
		if err := level.UnmarshalText([]byte(flag)); err != nil {
			return nil, fmt.Errorf("--%s: %w", LogLevelFlagName, err)
		}
	}

	return slog.New(newHandler(cmd.ErrOrStderr(), logging.Format, level)), nil
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
