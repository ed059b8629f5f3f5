package session

import (
	"context"
	"fmt"

	"github.com/Ander2716/rag-voice-client/internal/answer"
	"github.com/Ander2716/rag-voice-client/internal/ipc"
)

// Handle serves IPC commands for the owner session.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	var (
		snap Snapshot
		err  error
	)
	switch req.Command {
	case ipc.CommandStatus:
		return responseFor(c.Snapshot(), "status", nil)
	case ipc.CommandToggle:
		snap, err = c.Toggle(ctx)
	case ipc.CommandRecord:
		snap, err = c.Record(ctx)
	case ipc.CommandStop:
		snap, err = c.Stop(ctx)
	case ipc.CommandSend:
		snap, err = c.Send(ctx)
	case ipc.CommandEdit:
		snap, err = c.Edit(ctx, req.Text)
	case ipc.CommandCancel:
		snap, err = c.Cancel(ctx)
	case ipc.CommandReset:
		snap, err = c.Reset(ctx)
	default:
		snap = c.Snapshot()
		err = fmt.Errorf("unknown command: %s", req.Command)
	}
	return responseFor(snap, req.Command, err)
}

func responseFor(snap Snapshot, command string, err error) ipc.Response {
	resp := ipc.Response{
		OK:              err == nil,
		State:           string(snap.State),
		Status:          snap.Status,
		Query:           snap.Query,
		Answer:          wireAnswer(snap.Answer),
		SpeechSupported: snap.SpeechSupported,
	}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Message = command + " ok"
	return resp
}

func wireAnswer(a *answer.Answer) *ipc.Answer {
	if a == nil {
		return nil
	}
	return &ipc.Answer{
		Text:      a.Text,
		Source:    a.Source,
		Section:   a.Section,
		Context:   a.Context,
		Status:    a.Status,
		Malformed: a.Malformed,
	}
}
