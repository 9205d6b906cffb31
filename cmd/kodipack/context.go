package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"kodipack/internal/config"
	"kodipack/internal/logging"
)

type globalFlags struct {
	config    string
	addon     string
	logLevel  string
	logFormat string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads configuration once and applies command-line overrides.
// It never creates directories; commands that write do that themselves.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if name := strings.TrimSpace(c.flags.addon); name != "" {
			cfg = cfg.WithAddon(name)
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		if format := strings.TrimSpace(c.flags.logFormat); format != "" {
			cfg.Logging.Format = strings.ToLower(format)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid command-line override: %w", err)
			return
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
