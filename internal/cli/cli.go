package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandServe   Command = "serve"
	CommandToggle  Command = "toggle"
	CommandRecord  Command = "record"
	CommandStop    Command = "stop"
	CommandEdit    Command = "edit"
	CommandSend    Command = "send"
	CommandCancel  Command = "cancel"
	CommandReset   Command = "reset"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandServe:   {},
	CommandToggle:  {},
	CommandRecord:  {},
	CommandStop:    {},
	CommandEdit:    {},
	CommandSend:    {},
	CommandCancel:  {},
	CommandReset:   {},
	CommandStatus:  {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Parsed is the result of command-line parsing.
type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	// Text is the replacement query text for the edit command.
	Text string
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			rest := args[i+1:]
			if cmd == CommandEdit {
				if len(rest) > 0 && rest[0] == "--" {
					rest = rest[1:]
				}
				if len(rest) == 0 {
					return Parsed{}, errors.New("edit requires the query text")
				}
				parsed.Text = strings.Join(rest, " ")
				return parsed, nil
			}
			if len(rest) > 0 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  serve       Run the voice query session in the foreground
  toggle      Start recording, stop when recording, or send a ready query
  record      Start a new recording
  stop        Stop the active recording and transcribe it
  edit TEXT   Replace the query text while ready to send
  send        Submit the query to the answering service
  cancel      Abandon the current recording or query
  reset       Return to idle from any state, aborting in-flight work
  status      Print current state, query and answer
  devices     List available input devices
  doctor      Run configuration and environment checks
  version     Print version information
  help        Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/ragvoice/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
