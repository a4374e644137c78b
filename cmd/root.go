package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Beastly713/lsbkit/pkg/compression"
	"github.com/Beastly713/lsbkit/pkg/config"
	"github.com/Beastly713/lsbkit/pkg/crypto/encryptor"
	"github.com/Beastly713/lsbkit/pkg/crypto/secrets"
	"github.com/Beastly713/lsbkit/pkg/pipeline"
	"github.com/Beastly713/lsbkit/pkg/stego"
)

// passwordEnv supplies the password when -p is not given.
const passwordEnv = "LSBKIT_PASSWORD"

var (
	configPath string
	logLevel   string

	settings = config.Default()
	logger   = slog.New(slog.NewTextHandler(io.Discard, nil))

	// kdfParams is lowered by tests.
	kdfParams = encryptor.DefaultKDF
)

var rootCmd = &cobra.Command{
	Use:   "lsbkit",
	Short: "Hide text messages inside images",
	Long: `lsbkit: hide a password protected message in the least significant
bits of an image, and read it back.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		level, err := parseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}

		settings = cfg
		logger = newLogger(cmd.ErrOrStderr(), level)
		logger.Debug("configuration loaded",
			"output_format", cfg.OutputFormat,
			"layout", cfg.Layout,
			"data_shards", cfg.Sealed.DataShards,
			"parity_shards", cfg.Sealed.ParityShards,
			"compression", cfg.Sealed.Compression)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (.yml or .toml); default ./lsbkit.yml and ~/.lsbkit/config.toml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

// readPassword resolves the password from the flag, the environment or an
// interactive prompt, in that order.
func readPassword(cmd *cobra.Command, flagValue string) (*secrets.Secret, error) {
	if flagValue != "" {
		return secrets.FromString(flagValue), nil
	}
	if val := os.Getenv(passwordEnv); val != "" {
		logger.Debug("password taken from environment", "variable", passwordEnv)
		return secrets.FromString(val), nil
	}

	secret, err := secrets.Prompt(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
	if errors.Is(err, secrets.ErrEmpty) {
		return nil, stego.ErrPasswordRequired
	}
	return secret, err
}

// layoutOption resolves --layout against the configured default.
func layoutOption(flagValue string) (stego.Option, error) {
	name := settings.Layout
	if flagValue != "" {
		name = flagValue
	}
	layout, err := stego.ParseLayout(name)
	if err != nil {
		return nil, err
	}
	return stego.WithLayout(layout), nil
}

func sealedConfig() (pipeline.Config, error) {
	id, err := compression.ParseID(settings.Sealed.Compression)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		DataShards:   settings.Sealed.DataShards,
		ParityShards: settings.Sealed.ParityShards,
		Compression:  id,
		KDF:          kdfParams,
	}, nil
}
