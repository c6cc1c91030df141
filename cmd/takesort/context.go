package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/takesort/internal/adapters/backend"
	"github.com/ewilliams-labs/takesort/internal/config"
	"github.com/ewilliams-labs/takesort/internal/core/ports"
	"github.com/ewilliams-labs/takesort/internal/core/services"
	"github.com/ewilliams-labs/takesort/internal/worker"
)

type openFunc func(context.Context, config.StorageConfig, *log.Logger) (ports.StorageBackend, func() error, error)

type commandContext struct {
	configFlag *string
	driverFlag *string
	open       openFunc

	configOnce sync.Once
	config     config.Config
	configErr  error
}

func newCommandContext(configFlag, driverFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		driverFlag: driverFlag,
		open:       backend.Open,
	}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		path := os.Getenv("TAKESORT_CONFIG")
		if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
			path = *c.configFlag
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.driverFlag != nil && strings.TrimSpace(*c.driverFlag) != "" {
			cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(*c.driverFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withService opens the configured backend for the duration of fn.
func (c *commandContext) withService(cmd *cobra.Command, fn func(*services.Orchestrator) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)

	storage, closeStorage, err := c.open(cmd.Context(), cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer func() {
		if err := closeStorage(); err != nil {
			logger.Printf("WARN cli: closing storage: %v", err)
		}
	}()

	pool := worker.NewPool(storage, cfg.Analysis.Workers, logger)
	svc := services.NewOrchestrator(storage, pool, logger, services.Options{
		Extensions: cfg.Analysis.Extensions,
	})
	return fn(svc)
}
