package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLanes(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validatePoller(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLanes() error {
	seen := make(map[string]struct{}, len(c.Lanes))
	for i, lane := range c.Lanes {
		if lane.APIKey == "" {
			return fmt.Errorf("lanes[%d].api_key must be set", i)
		}
		if _, dup := seen[lane.Name]; dup {
			return fmt.Errorf("lanes[%d].name %q is not unique", i, lane.Name)
		}
		seen[lane.Name] = struct{}{}
		if lane.ProxyURL != "" {
			parsed, err := url.Parse(lane.ProxyURL)
			if err != nil || parsed.Host == "" {
				return fmt.Errorf("lanes[%d].proxy_url %q is not a valid URL", i, lane.ProxyURL)
			}
		}
	}
	return nil
}

func (c *Config) validateRemote() error {
	for name, value := range map[string]string{
		"remote.base_url":        c.Remote.BaseURL,
		"remote.upload_base_url": c.Remote.UploadBaseURL,
	} {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s %q is not a valid URL", name, value)
		}
		if !strings.HasPrefix(parsed.Scheme, "http") {
			return fmt.Errorf("%s must use http or https", name)
		}
	}
	return nil
}

func (c *Config) validatePoller() error {
	if err := ensurePositiveMap(map[string]int{
		"poller.interval_seconds":         c.Poller.IntervalSeconds,
		"poller.backoff_floor_seconds":    c.Poller.BackoffFloorSeconds,
		"poller.backoff_ceiling_seconds":  c.Poller.BackoffCeilingSeconds,
		"poller.transient_budget":         c.Poller.TransientBudget,
		"poller.server_error_budget":      c.Poller.ServerErrorBudget,
		"poller.max_job_lifetime_seconds": c.Poller.MaxJobLifetimeSeconds,
	}); err != nil {
		return err
	}
	if c.Poller.BackoffCeilingSeconds < c.Poller.BackoffFloorSeconds {
		return errors.New("poller.backoff_ceiling_seconds must be >= poller.backoff_floor_seconds")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
