package config

// Default returns the canonical runtime configuration used when no file is present.
//
// The endpoint URL is intentionally empty: serving requires an explicit value.
func Default() Config {
	return Config{
		Endpoint: EndpointConfig{
			URL:       "",
			TimeoutMS: 30000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		STT: STTConfig{
			URL:        "http://127.0.0.1:8000",
			Model:      "whisper-1",
			Language:   "es-ES",
			HealthPath: "/health",
			TimeoutMS:  30000,
		},
		Transcript: TranscriptConfig{Capitalize: true},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "desktop",
			DesktopAppName: "ragvoice",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Output: OutputConfig{CopyAnswer: false},
		Debug:  DebugConfig{},
	}
}
