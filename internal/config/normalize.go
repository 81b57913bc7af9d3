package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeReceiver()
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeLogging()
	c.Metrics.Listen = strings.TrimSpace(c.Metrics.Listen)
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(outputDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.OutputDir = value
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeReceiver() {
	c.Receiver.Channel = strings.ToUpper(strings.TrimSpace(c.Receiver.Channel))
	if c.Receiver.Channel == "" {
		c.Receiver.Channel = defaultChannel
	}
	c.Receiver.TransmissionMode = strings.ToUpper(strings.TrimSpace(c.Receiver.TransmissionMode))
	if c.Receiver.TransmissionMode == "" {
		c.Receiver.TransmissionMode = defaultMode
	}
	if c.Receiver.AcquireTimeoutSeconds == 0 {
		c.Receiver.AcquireTimeoutSeconds = defaultAcquireSecs
	}
	if c.Receiver.SampleQueueSize == 0 {
		c.Receiver.SampleQueueSize = defaultSampleQueue
	}
	if c.Receiver.SymbolQueueSize == 0 {
		c.Receiver.SymbolQueueSize = defaultSymbolQueue
	}
	if c.Receiver.SettleFrames == 0 {
		c.Receiver.SettleFrames = defaultSettleFrames
	}
}

func (c *Config) normalizeSource() error {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = defaultSourceKind
	}
	c.Source.Command = strings.TrimSpace(c.Source.Command)
	if c.Source.Command == "" {
		c.Source.Command = defaultCommand
	}
	c.Source.Address = strings.TrimSpace(c.Source.Address)
	if strings.TrimSpace(c.Source.Path) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Source.Path))
		if err != nil {
			return fmt.Errorf("source.path: %w", err)
		}
		c.Source.Path = expanded
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.TypeTag = strings.TrimSpace(c.Store.TypeTag)
	if c.Store.TypeTag == "" {
		c.Store.TypeTag = defaultTypeTag
	}
	c.Store.Category = strings.TrimSpace(c.Store.Category)
	if c.Store.Category == "" {
		c.Store.Category = defaultCategory
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
