package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"datarecv/internal/channels"
	"datarecv/internal/dab"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateReceiver(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateReassembly(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateReceiver() error {
	if _, err := channels.Lookup(c.Receiver.Channel); err != nil {
		return fmt.Errorf("receiver.channel: %w", err)
	}
	if _, err := dab.ParseTransmissionMode(c.Receiver.TransmissionMode); err != nil {
		return fmt.Errorf("receiver.transmission_mode: %w", err)
	}
	if c.Receiver.AcquireTimeoutSeconds < 0 {
		return errors.New("receiver.acquire_timeout_seconds must be positive")
	}
	if c.Receiver.SampleQueueSize < 0 || c.Receiver.SymbolQueueSize < 0 {
		return errors.New("receiver queue sizes must be positive")
	}
	if c.Receiver.SubscriptionBuffer < 0 {
		return errors.New("receiver.subscription_buffer must not be negative")
	}
	if c.Receiver.MaxServices < 0 {
		return errors.New("receiver.max_services must not be negative")
	}
	if c.Receiver.SettleFrames < 0 {
		return errors.New("receiver.settle_frames must be positive")
	}
	return nil
}

func (c *Config) validateSource() error {
	switch c.Source.Kind {
	case "command":
		return nil
	case "file":
		if c.Source.Path == "" {
			return errors.New("source.path must be set when source.kind is \"file\"")
		}
		return nil
	case "tcp":
		if _, _, err := net.SplitHostPort(c.Source.Address); err != nil {
			return fmt.Errorf("source.address must be host:port when source.kind is \"tcp\": %w", err)
		}
		return nil
	default:
		return fmt.Errorf("source.kind: unsupported value %q (expected command, file or tcp)", c.Source.Kind)
	}
}

func (c *Config) validateReassembly() error {
	if c.Reassembly.StripOffset < 0 {
		return errors.New("reassembly.strip_offset must not be negative")
	}
	if c.Reassembly.StripLength < 0 {
		return errors.New("reassembly.strip_length must not be negative")
	}
	return nil
}

func (c *Config) validateStore() error {
	if strings.ContainsAny(c.Store.TypeTag, "\r\n") {
		return errors.New("store.type_tag must be a single line")
	}
	if strings.ContainsAny(c.Store.Category, "\r\n") {
		return errors.New("store.category must be a single line")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
		return fmt.Errorf("metrics.listen: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// Frequency resolves the configured channel.
func (c *Config) Frequency() (dab.Frequency, error) {
	return channels.Lookup(c.Receiver.Channel)
}

// Mode parses the configured transmission mode.
func (c *Config) Mode() (dab.TransmissionMode, error) {
	return dab.ParseTransmissionMode(c.Receiver.TransmissionMode)
}
