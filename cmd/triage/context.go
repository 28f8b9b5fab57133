package main

import (
	"strings"
	"sync"

	"triage/internal/api"
	"triage/internal/config"
)

type commandContext struct {
	configFlag  *string
	addressFlag *string
	tokenFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, addressFlag, tokenFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		addressFlag: addressFlag,
		tokenFlag:   tokenFlag,
	}
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
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds an API client from flags, falling back to the configured
// bind address and token.
func (c *commandContext) client() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	address := cfg.Paths.APIBind
	if c.addressFlag != nil && strings.TrimSpace(*c.addressFlag) != "" {
		address = strings.TrimSpace(*c.addressFlag)
	}
	token := cfg.Paths.APIToken
	if c.tokenFlag != nil && strings.TrimSpace(*c.tokenFlag) != "" {
		token = strings.TrimSpace(*c.tokenFlag)
	}
	return api.NewClient(address, token), nil
}
