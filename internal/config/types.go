// Package config resolves, parses, validates, and defaults ragvoice configuration.
package config

// Config is the fully materialized runtime configuration used by ragvoice.
type Config struct {
	Endpoint   EndpointConfig   `key:"endpoint"`
	Audio      AudioConfig      `key:"audio"`
	STT        STTConfig        `key:"stt"`
	Transcript TranscriptConfig `key:"transcript"`
	Indicator  IndicatorConfig  `key:"indicator"`
	Output     OutputConfig     `key:"output"`
	Debug      DebugConfig      `key:"debug"`
}

// EndpointConfig locates the remote answering service.
type EndpointConfig struct {
	URL       string `key:"url" validate:"omitempty,url"`
	TimeoutMS int    `key:"timeout_ms" validate:"gte=0"`
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string `key:"input"`
	Fallback string `key:"fallback"`
}

// STTConfig locates the speech-to-text service and its recognition locale.
type STTConfig struct {
	URL        string `key:"url" validate:"required,url"`
	Model      string `key:"model"`
	Language   string `key:"language" validate:"required"`
	HealthPath string `key:"health_path" validate:"required,startswith=/"`
	TimeoutMS  int    `key:"timeout_ms" validate:"gte=0"`
}

type TranscriptConfig struct {
	Capitalize bool `key:"capitalize"`
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool   `key:"enable"`
	Backend           string `key:"backend" validate:"required,oneof=hypr desktop"`
	DesktopAppName    string `key:"desktop_app_name" validate:"required_if=Backend desktop"`
	SoundEnable       bool   `key:"sound_enable"`
	SoundStartFile    string `key:"sound_start_file"`
	SoundStopFile     string `key:"sound_stop_file"`
	SoundCompleteFile string `key:"sound_complete_file"`
	SoundCancelFile   string `key:"sound_cancel_file"`
	ErrorTimeoutMS    int    `key:"error_timeout_ms" validate:"gte=0"`
}

// OutputConfig controls what happens with a received answer besides display.
type OutputConfig struct {
	CopyAnswer bool          `key:"copy_answer"`
	Clipboard  CommandConfig `key:"clipboard_cmd"`
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

type DebugConfig struct {
	EnableAudioDump bool `key:"audio_dump"`
	EnableTraceDump bool `key:"trace_dump"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
