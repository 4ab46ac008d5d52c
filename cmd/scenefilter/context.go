package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scenefilter/internal/api"
	"scenefilter/internal/config"
	"scenefilter/internal/logging"
	"scenefilter/internal/segmentdb"
	"scenefilter/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	depsOnce sync.Once
	deps     api.Deps
	depsErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureDeps opens the store and catalog lazily; commands that only read
// configuration never touch the database.
func (c *commandContext) ensureDeps() (api.Deps, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return api.Deps{}, err
	}

	c.depsOnce.Do(func() {
		st, err := store.Open(cfg)
		if err != nil {
			c.depsErr = err
			return
		}
		c.deps = api.Deps{
			Config:  cfg,
			Store:   st,
			Catalog: segmentdb.New(cfg, logging.NewNop()),
			Logger:  logging.NewNop(),
		}
	})
	return c.deps, c.depsErr
}

func (c *commandContext) close() {
	if c.deps.Store != nil {
		_ = c.deps.Store.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for parent := cmd; parent != nil; parent = parent.Parent() {
		if parent.Annotations != nil && parent.Annotations["skipConfigLoad"] == "true" {
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
