package profile_test

import (
	"context"

	"github.com/kalambet/loanbot/internal/engine"
)

type recordingEngine struct {
	reply string
	got   engine.Request
}

func (e *recordingEngine) Chat(_ context.Context, req engine.Request) (string, error) {
	e.got = req
	return e.reply, nil
}
