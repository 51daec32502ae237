package dispatch

import (
	"context"
	"log"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

// LogDispatcher prints codes to the process log instead of delivering them.
// Dev mode only: it exposes the plaintext code and must never run in
// production.
type LogDispatcher struct{}

// NewLogDispatcher creates a dev-mode dispatcher.
func NewLogDispatcher() ports.MessageDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Send(ctx context.Context, phone, code string) error {
	log.Printf("dev dispatch: code for %s is %s", core.MaskPhone(phone), code)
	return nil
}
