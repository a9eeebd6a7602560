package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"stylist/internal/config"
	"stylist/internal/imagecache"
	"stylist/internal/logging"
	"stylist/internal/service"
	"stylist/internal/stylistapi"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.AppConfig
	configPath string
	configErr  error

	svc *service.StylistService
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.AppConfig, error) {
	c.configOnce.Do(func() {
		var (
			cfg  *config.AppConfig
			path string
			err  error
		)
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = strings.TrimSpace(*c.configFlag)
			cfg, err = config.Load(path)
		} else {
			cfg, path, err = config.LoadDefault()
		}
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = fmt.Errorf("invalid config %s: %w", path, err)
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// stylistService builds the stylist service once. Interactive sessions keep log
// output off the terminal.
func (c *commandContext) stylistService(interactive bool) (*service.StylistService, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, interactive)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "path", c.configPath, "base_url", cfg.Service.BaseURL)

	client := stylistapi.NewClient(
		stylistapi.Config{BaseURL: cfg.Service.BaseURL, Timeout: cfg.Timeout()},
		stylistapi.WithLogger(logger.With("component", "stylistapi")),
	)
	svc, err := service.NewStylistService(client, service.Options{
		GracePeriod: cfg.GracePeriod(),
		ImageCache:  imagecache.Config{MaxBytes: cfg.ImageCache.MaxBytes, TTL: cfg.CacheTTL()},
	}, logger)
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return svc, nil
}

func (c *commandContext) close() error {
	if c.svc == nil {
		return nil
	}
	err := c.svc.Close()
	c.svc = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
