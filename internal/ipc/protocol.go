// Package ipc carries user actions from CLI invocations to the owner process
// over a unix socket using newline-delimited JSON.
package ipc

import (
	"fmt"
	"strings"
)

// Commands accepted by the owner process.
const (
	CommandStatus = "status"
	CommandToggle = "toggle"
	CommandRecord = "record"
	CommandStop   = "stop"
	CommandSend   = "send"
	CommandEdit   = "edit"
	CommandCancel = "cancel"
	CommandReset  = "reset"
)

var knownCommands = map[string]bool{
	CommandStatus: true,
	CommandToggle: true,
	CommandRecord: true,
	CommandStop:   true,
	CommandSend:   true,
	CommandEdit:   true,
	CommandCancel: true,
	CommandReset:  true,
}

type Request struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
}

// Normalize lowercases the command and checks it is known.
func (r Request) Normalize() (Request, error) {
	r.Command = strings.ToLower(strings.TrimSpace(r.Command))
	if !knownCommands[r.Command] {
		return r, fmt.Errorf("unknown command %q", r.Command)
	}
	return r, nil
}

type Response struct {
	OK              bool    `json:"ok"`
	State           string  `json:"state,omitempty"`
	Message         string  `json:"message,omitempty"`
	Error           string  `json:"error,omitempty"`
	Status          string  `json:"status,omitempty"`
	Query           string  `json:"query,omitempty"`
	Answer          *Answer `json:"answer,omitempty"`
	SpeechSupported bool    `json:"speech_supported"`
}

// Answer is the wire form of the last received answer.
type Answer struct {
	Text      string `json:"text"`
	Source    string `json:"source,omitempty"`
	Section   string `json:"section,omitempty"`
	Context   string `json:"context,omitempty"`
	Status    string `json:"status,omitempty"`
	Malformed bool   `json:"malformed,omitempty"`
}
