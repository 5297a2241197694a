// Package notifications turns published booking events into guest and
// manager notifications. Delivery is a structured log line for now.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var ErrMalformedEvent = errors.New("notifications: malformed cloud event")

// Deduplicator reports whether an event id was handled before and remembers it.
type Deduplicator interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

type cloudEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Subject string          `json:"subject"`
	Time    time.Time       `json:"time"`
	Data    json.RawMessage `json:"data"`
}

type bookingData struct {
	BookingID   string    `json:"booking_id"`
	RoomID      string    `json:"room_id"`
	RequesterID string    `json:"requester_id"`
	ManagerID   string    `json:"manager_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Nights      int       `json:"nights"`
	Total       struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"total"`
}

// Notification is what a delivery channel would send.
type Notification struct {
	EventID   string
	Recipient string
	Kind      string
	BookingID string
	Text      string
}

// Sender is an outbound delivery channel such as mail or push.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

type SenderFunc func(ctx context.Context, n Notification) error

func (f SenderFunc) Send(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

type Notifier struct {
	Inbox  Deduplicator
	Logger *slog.Logger
	// Sender receives every notification after it is logged. Optional.
	Sender Sender
}

// HandleEvent decodes one CloudEvents envelope. Redelivered events and event
// types nobody is notified about are acknowledged without side effects.
func (n *Notifier) HandleEvent(ctx context.Context, payload []byte) error {
	var evt cloudEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if evt.ID == "" || evt.Type == "" {
		return ErrMalformedEvent
	}
	name := strings.TrimSuffix(evt.Type, ".v1")
	if !strings.HasPrefix(name, "booking.") {
		n.logger().Debug("event ignored", "event_id", evt.ID, "type", evt.Type)
		return nil
	}
	if n.Inbox != nil {
		seen, err := n.Inbox.Seen(ctx, evt.ID)
		if err != nil {
			return err
		}
		if seen {
			n.logger().Debug("duplicate event skipped", "event_id", evt.ID)
			return nil
		}
	}

	var data bookingData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	note, ok := compose(name, evt.ID, data)
	if !ok {
		return nil
	}
	n.logger().Info("notification", "event_id", note.EventID, "kind", note.Kind, "recipient", note.Recipient, "booking_id", note.BookingID, "text", note.Text)
	if n.Sender != nil {
		return n.Sender.Send(ctx, note)
	}
	return nil
}

func compose(name, eventID string, d bookingData) (Notification, bool) {
	note := Notification{EventID: eventID, Kind: name, BookingID: d.BookingID}
	switch name {
	case "booking.reserved":
		note.Recipient = d.RequesterID
		note.Text = fmt.Sprintf("Room %s is booked from %s to %s (%d nights, %d %s).",
			d.RoomID, d.CheckIn.Format(time.DateOnly), d.CheckOut.Format(time.DateOnly), d.Nights, d.Total.Amount, d.Total.Currency)
	case "booking.cancelled":
		note.Recipient = d.RequesterID
		note.Text = fmt.Sprintf("Your booking of room %s was cancelled.", d.RoomID)
	case "booking.completed":
		note.Recipient = d.ManagerID
		note.Text = fmt.Sprintf("Stay in room %s completed, %d %s earned.", d.RoomID, d.Total.Amount, d.Total.Currency)
	default:
		return Notification{}, false
	}
	return note, true
}

func (n *Notifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}
