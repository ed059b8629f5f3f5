package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// filePayload mirrors the on-disk layout shared by the JSONC and YAML formats.
// Pointer fields distinguish "absent" from zero values so defaults survive.
type filePayload struct {
	Endpoint   *fileEndpoint   `json:"endpoint" yaml:"endpoint"`
	Audio      *fileAudio      `json:"audio" yaml:"audio"`
	STT        *fileSTT        `json:"stt" yaml:"stt"`
	Transcript *fileTranscript `json:"transcript" yaml:"transcript"`
	Indicator  *fileIndicator  `json:"indicator" yaml:"indicator"`
	Output     *fileOutput     `json:"output" yaml:"output"`
	Debug      *fileDebug      `json:"debug" yaml:"debug"`
}

type fileEndpoint struct {
	URL       *string `json:"url" yaml:"url"`
	TimeoutMS *int    `json:"timeout_ms" yaml:"timeout_ms"`
}

type fileAudio struct {
	Input    *string `json:"input" yaml:"input"`
	Fallback *string `json:"fallback" yaml:"fallback"`
}

type fileSTT struct {
	URL        *string `json:"url" yaml:"url"`
	Model      *string `json:"model" yaml:"model"`
	Language   *string `json:"language" yaml:"language"`
	HealthPath *string `json:"health_path" yaml:"health_path"`
	TimeoutMS  *int    `json:"timeout_ms" yaml:"timeout_ms"`
}

type fileTranscript struct {
	Capitalize *bool `json:"capitalize" yaml:"capitalize"`
}

type fileIndicator struct {
	Enable            *bool   `json:"enable" yaml:"enable"`
	Backend           *string `json:"backend" yaml:"backend"`
	DesktopAppName    *string `json:"desktop_app_name" yaml:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable" yaml:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file" yaml:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file" yaml:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file" yaml:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file" yaml:"sound_cancel_file"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms" yaml:"error_timeout_ms"`
}

type fileOutput struct {
	CopyAnswer   *bool         `json:"copy_answer" yaml:"copy_answer"`
	ClipboardCmd *commandValue `json:"clipboard_cmd" yaml:"clipboard_cmd"`
}

type fileDebug struct {
	AudioDump *bool `json:"audio_dump" yaml:"audio_dump"`
	TraceDump *bool `json:"trace_dump" yaml:"trace_dump"`
}

// commandValue accepts either a shell-like command string or an argv list.
type commandValue struct {
	raw  string
	argv []string
	list bool
}

func (c *commandValue) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*c = commandValue{raw: strings.Join(list, " "), argv: list, list: true}
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = commandValue{raw: single}
		return nil
	}

	return fmt.Errorf("expected command string or string array")
}

func (c *commandValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = commandValue{raw: strings.Join(list, " "), argv: list, list: true}
		return nil
	case yaml.ScalarNode:
		*c = commandValue{raw: node.Value}
		return nil
	default:
		return fmt.Errorf("line %d: expected command string or string array", node.Line)
	}
}

func (c commandValue) resolve() (CommandConfig, error) {
	if c.list {
		argv := make([]string, 0, len(c.argv))
		for _, arg := range c.argv {
			if strings.TrimSpace(arg) == "" {
				continue
			}
			argv = append(argv, arg)
		}
		return CommandConfig{Raw: c.raw, Argv: argv}, nil
	}
	argv, err := splitCommand(c.raw)
	if err != nil {
		return CommandConfig{}, err
	}
	return CommandConfig{Raw: c.raw, Argv: argv}, nil
}

func (payload filePayload) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Endpoint != nil {
		if payload.Endpoint.URL != nil {
			cfg.Endpoint.URL = strings.TrimSpace(*payload.Endpoint.URL)
		}
		if payload.Endpoint.TimeoutMS != nil {
			cfg.Endpoint.TimeoutMS = *payload.Endpoint.TimeoutMS
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.STT != nil {
		if payload.STT.URL != nil {
			cfg.STT.URL = strings.TrimSpace(*payload.STT.URL)
		}
		if payload.STT.Model != nil {
			cfg.STT.Model = strings.TrimSpace(*payload.STT.Model)
		}
		if payload.STT.Language != nil {
			cfg.STT.Language = strings.TrimSpace(*payload.STT.Language)
		}
		if payload.STT.HealthPath != nil {
			cfg.STT.HealthPath = strings.TrimSpace(*payload.STT.HealthPath)
		}
		if payload.STT.TimeoutMS != nil {
			cfg.STT.TimeoutMS = *payload.STT.TimeoutMS
		}
	}

	if payload.Transcript != nil && payload.Transcript.Capitalize != nil {
		cfg.Transcript.Capitalize = *payload.Transcript.Capitalize
	}

	if ind := payload.Indicator; ind != nil {
		if ind.Enable != nil {
			cfg.Indicator.Enable = *ind.Enable
		}
		if ind.Backend != nil {
			cfg.Indicator.Backend = strings.ToLower(strings.TrimSpace(*ind.Backend))
		}
		if ind.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*ind.DesktopAppName)
		}
		if ind.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *ind.SoundEnable
		}
		if ind.SoundStartFile != nil {
			cfg.Indicator.SoundStartFile = strings.TrimSpace(*ind.SoundStartFile)
		}
		if ind.SoundStopFile != nil {
			cfg.Indicator.SoundStopFile = strings.TrimSpace(*ind.SoundStopFile)
		}
		if ind.SoundCompleteFile != nil {
			cfg.Indicator.SoundCompleteFile = strings.TrimSpace(*ind.SoundCompleteFile)
		}
		if ind.SoundCancelFile != nil {
			cfg.Indicator.SoundCancelFile = strings.TrimSpace(*ind.SoundCancelFile)
		}
		if ind.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *ind.ErrorTimeoutMS
		}
	}

	if payload.Output != nil {
		if payload.Output.CopyAnswer != nil {
			cfg.Output.CopyAnswer = *payload.Output.CopyAnswer
		}
		if payload.Output.ClipboardCmd != nil {
			cmd, err := payload.Output.ClipboardCmd.resolve()
			if err != nil {
				return nil, fmt.Errorf("invalid output.clipboard_cmd: %w", err)
			}
			cfg.Output.Clipboard = cmd
		}
	}

	if payload.Debug != nil {
		if payload.Debug.AudioDump != nil {
			cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
		}
		if payload.Debug.TraceDump != nil {
			cfg.Debug.EnableTraceDump = *payload.Debug.TraceDump
		}
	}

	return warnings, nil
}
