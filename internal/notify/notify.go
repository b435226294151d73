package notify

import (
	"context"
	"log"

	"github.com/dojokit/booking/internal/kafka"
)

// Sender delivers booking alerts to members. Delivery is best effort; the
// transport behind it is owned by the notification collaborator.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	log.Printf("notify member %d: %s for session %d (reservation %s)",
		event.MemberID, event.Type, event.SessionID, event.Token)
	return nil
}
