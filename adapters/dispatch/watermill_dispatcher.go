package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

// SendCodeTopic carries pending code deliveries to the SMS gateway worker.
const SendCodeTopic = "notify.send_code"

// sendCodeMessage is the payload consumed by the gateway worker. This is the
// only place the plaintext code leaves the auth core.
type sendCodeMessage struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// WatermillDispatcher hands codes to the delivery worker over a message
// stream. Delivery itself is fire-and-forget; only the publish can fail.
type WatermillDispatcher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillDispatcher creates a stream-backed dispatcher.
func NewWatermillDispatcher(publisher message.Publisher) ports.MessageDispatcher {
	return &WatermillDispatcher{
		publisher: publisher,
		topic:     SendCodeTopic,
	}
}

// Send publishes the code for delivery. A failure here does not invalidate
// the stored record; the caller surfaces it and the user may request a
// fresh code.
func (d *WatermillDispatcher) Send(ctx context.Context, phone, code string) error {
	payload, err := json.Marshal(sendCodeMessage{Phone: phone, Code: code})
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", core.ErrDispatchFailed, err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := d.publisher.Publish(d.topic, msg); err != nil {
		return fmt.Errorf("%w: %v", core.ErrDispatchFailed, err)
	}
	return nil
}
