package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReservationEvent is the payload published on every reservation lifecycle
// transition. The worker's notification consumer is the main subscriber.
type ReservationEvent struct {
	Type             string    `json:"type"`
	Token            string    `json:"token"`
	SessionID        int64     `json:"session_id"`
	MemberID         int64     `json:"member_id"`
	Kind             string    `json:"kind"`
	Status           string    `json:"status"`
	WaitlistPosition int       `json:"waitlist_position,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

const (
	EventReservationConfirmed  = "reservation_confirmed"
	EventReservationWaitlisted = "reservation_waitlisted"
	EventWaitlistPromoted      = "waitlist_promoted"
	EventReservationCancelled  = "reservation_cancelled"
	EventMemberCheckedIn       = "member_checked_in"
	EventMemberNoShow          = "member_no_show"
)

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
