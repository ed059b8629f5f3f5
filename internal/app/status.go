package app

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/Ander2716/rag-voice-client/internal/fsm"
	"github.com/Ander2716/rag-voice-client/internal/ipc"
)

var stateColors = map[fsm.State]color.Attribute{
	fsm.StateIdle:         color.FgWhite,
	fsm.StateRecording:    color.FgRed,
	fsm.StateTranscribing: color.FgMagenta,
	fsm.StateReadyToSend:  color.FgYellow,
	fsm.StateLoading:      color.FgBlue,
}

type palette struct {
	label  *color.Color
	plain  *color.Color
	state  *color.Color
	answer *color.Color
	warn   *color.Color
}

// newPalette colors output only for terminals; buffers and pipes get plain text.
func newPalette(w io.Writer, state fsm.State) palette {
	attr, ok := stateColors[state]
	if !ok {
		attr = color.FgWhite
	}
	p := palette{
		label:  color.New(color.Faint),
		plain:  color.New(color.Reset),
		state:  color.New(attr, color.Bold),
		answer: color.New(color.FgGreen),
		warn:   color.New(color.FgRed),
	}
	if _, isFile := w.(*os.File); !isFile || color.NoColor {
		for _, c := range []*color.Color{p.label, p.plain, p.state, p.answer, p.warn} {
			c.DisableColor()
		}
	}
	return p
}

// renderStatus prints one labeled line per populated field. live marks a
// response from a running session, which also reports capture availability.
func renderStatus(w io.Writer, resp ipc.Response, live bool) {
	state := fsm.State(resp.State)
	p := newPalette(w, state)

	line := func(label string, c *color.Color, value string) {
		p.label.Fprintf(w, "%-8s ", label+":")
		c.Fprintln(w, value)
	}

	line("state", p.state, string(state))
	if resp.Status != "" {
		line("status", p.plain, resp.Status)
	}
	if resp.Query != "" {
		line("query", p.plain, resp.Query)
	}
	if a := resp.Answer; a != nil {
		answerColor := p.answer
		if a.Malformed || strings.EqualFold(a.Status, "error") {
			answerColor = p.warn
		}
		line("answer", answerColor, a.Text)
		for _, extra := range [][2]string{{"source", a.Source}, {"section", a.Section}, {"context", a.Context}} {
			if extra[1] != "" {
				line(extra[0], p.plain, extra[1])
			}
		}
	}
	if live && !resp.SpeechSupported {
		line("speech", p.warn, "unavailable")
	}
}
