package notification

import (
	"context"
	"log/slog"
)

const (
	// KindBookingConfirmed indicates a shipment was paid for and scheduled.
	KindBookingConfirmed = "booking_confirmed"
	// KindWalletCredited indicates a funding event credited the wallet.
	KindWalletCredited = "wallet_credited"
	// KindShipmentStatus indicates a rider moved a shipment forward.
	KindShipmentStatus = "shipment_status"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems. Push and socket
// delivery live outside this service; the logger implementation stands in.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
