package config

const (
	defaultConfigPath   = "~/.config/dab-datarecv/config.toml"
	projectConfigName   = "dab-datarecv.toml"
	outputDirEnv        = "DAB_DATARECV_OUTPUT_DIR"
	defaultOutputDir    = "~/.local/share/dab-datarecv/records"
	defaultStateDir     = "~/.local/state/dab-datarecv"
	defaultChannel      = "8B"
	defaultMode         = "I"
	defaultAcquireSecs  = 30
	defaultSampleQueue  = 64
	defaultSymbolQueue  = 64
	defaultSubBuffer    = 256
	defaultSettleFrames = 100
	defaultSourceKind   = "command"
	defaultCommand      = "eti-cmdline-rtlsdr"
	defaultStripOffset  = 1024
	defaultStripLength  = 6
	defaultTypeTag      = "IPDT"
	defaultCategory     = "0"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
		},
		Receiver: Receiver{
			Channel:               defaultChannel,
			TransmissionMode:      defaultMode,
			AutoGain:              true,
			AcquireTimeoutSeconds: defaultAcquireSecs,
			SampleQueueSize:       defaultSampleQueue,
			SymbolQueueSize:       defaultSymbolQueue,
			SubscriptionBuffer:    defaultSubBuffer,
			SettleFrames:          defaultSettleFrames,
		},
		Source: Source{
			Kind:    defaultSourceKind,
			Command: defaultCommand,
		},
		Reassembly: Reassembly{
			StripOffset: defaultStripOffset,
			StripLength: defaultStripLength,
		},
		Store: Store{
			TypeTag:  defaultTypeTag,
			Category: defaultCategory,
			Index:    true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
