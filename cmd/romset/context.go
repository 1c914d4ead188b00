package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/beano38/retro-manager/internal/config"
	"github.com/beano38/retro-manager/internal/history"
	"github.com/beano38/retro-manager/internal/logging"
	"github.com/beano38/retro-manager/internal/workflow"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger
	logErr     error

	store *history.Store
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// JSONMode reports whether --json was given.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) logger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		c.log, c.logErr = logging.NewFromConfig(cfg)
	})
	return c.log, c.logErr
}

// historyStore opens the run history database once per invocation.
func (c *commandContext) historyStore() (*history.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	c.store = store
	return store, nil
}

func (c *commandContext) runner() (*workflow.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	store, err := c.historyStore()
	if err != nil {
		// A run without history still reconciles.
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "runs are not recorded"),
			logging.String(logging.FieldErrorHint, "run romset doctor"),
		)
		store = nil
	}
	return workflow.NewRunner(cfg, store, logger), nil
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
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

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// errSystemsFailed signals a partial batch to the exit status.
var errSystemsFailed = errors.New("one or more systems failed")
