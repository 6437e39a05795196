package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRemote()
	c.normalizePoller()
	c.normalizeLanes()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRemote() {
	if strings.TrimSpace(c.Remote.BaseURL) == "" {
		c.Remote.BaseURL = defaultRemoteBaseURL
	}
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	if strings.TrimSpace(c.Remote.UploadBaseURL) == "" {
		c.Remote.UploadBaseURL = defaultRemoteUploadBaseURL
	}
	c.Remote.UploadBaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.UploadBaseURL), "/")
	if c.Remote.RequestTimeoutSeconds <= 0 {
		c.Remote.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.Remote.UploadTimeoutSeconds <= 0 {
		c.Remote.UploadTimeoutSeconds = defaultUploadTimeoutSeconds
	}
}

func (c *Config) normalizePoller() {
	if c.Poller.IntervalSeconds <= 0 {
		c.Poller.IntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Poller.BackoffFloorSeconds <= 0 {
		c.Poller.BackoffFloorSeconds = defaultBackoffFloorSeconds
	}
	if c.Poller.BackoffCeilingSeconds <= 0 {
		c.Poller.BackoffCeilingSeconds = defaultBackoffCeilingSeconds
	}
	if c.Poller.TransientBudget <= 0 {
		c.Poller.TransientBudget = defaultTransientBudget
	}
	if c.Poller.ServerErrorBudget <= 0 {
		c.Poller.ServerErrorBudget = defaultServerErrorBudget
	}
	if c.Poller.MaxJobLifetimeSeconds <= 0 {
		c.Poller.MaxJobLifetimeSeconds = defaultMaxJobLifetimeSeconds
	}
}

func (c *Config) normalizeLanes() {
	for i := range c.Lanes {
		c.Lanes[i].Name = strings.TrimSpace(c.Lanes[i].Name)
		c.Lanes[i].APIKey = strings.TrimSpace(c.Lanes[i].APIKey)
		c.Lanes[i].ProxyURL = strings.TrimSpace(c.Lanes[i].ProxyURL)
		if c.Lanes[i].Name == "" {
			c.Lanes[i].Name = fmt.Sprintf("lane-%d", i+1)
		}
	}
}
