// Package cmd implements the mimic command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/observability"
)

// DefaultConfigFile is read from the working directory when --config is not set.
const DefaultConfigFile = "mimic.yaml"

type configKeyType struct{}

var configKey = configKeyType{}

// NewRootCommand builds the command tree. Every call returns an independent
// tree, so flags never leak between executions.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "mimic",
		Short:         "Drive a browser page with human-like pointer and keyboard input.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v := config.NewViper()
			if err := initializeConfig(cmd, v, cfgFile); err != nil {
				return err
			}
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Configuration loaded.",
				zap.String("version", Version),
				zap.String("config_file", v.ConfigFileUsed()),
			)
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, config.Interface(cfg)))
			return nil
		},
	}
	root.SetVersionTemplate("mimic version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default ./"+DefaultConfigFile+")")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Bool("headless", true, "run the browser without a window")

	root.AddCommand(
		newFindCmd(),
		newClickCmd(),
		newTypeCmd(),
		newWarmupCmd(),
		newWaitGoneCmd(),
		newVersionCmd(),
	)
	return root
}

// initializeConfig reads the config file and binds persistent flags that
// override configuration keys.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultConfigFile, ".yaml"))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit --config must exist; the default file is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, flag := range map[string]string{
		"logger.level":     "log-level",
		"browser.headless": "headless",
	} {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// configFrom returns the configuration loaded by the root command.
func configFrom(cmd *cobra.Command) (config.Interface, error) {
	cfg, ok := cmd.Context().Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not initialized")
	}
	return cfg, nil
}

// Execute runs the command line against os.Args.
func Execute(ctx context.Context) error {
	defer observability.Sync()
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command failed.", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
