package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"projecthub/backend/internal/telemetry/domain"
)

var _ Producer = (*KafkaProducer)(nil)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

func TestNewKafkaProducer_Disabled(t *testing.T) {
	if p := NewKafkaProducer(nil, "events"); p != nil {
		t.Error("no brokers should disable the producer")
	}
	if p := NewKafkaProducer([]string{"localhost:9092"}, ""); p != nil {
		t.Error("empty topic should disable the producer")
	}
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &domain.Event{EventType: "x"}); err != nil {
		t.Errorf("nil producer Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil producer Close: %v", err)
	}
}

func TestKafkaProducer_Emit(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, topic: "auth-events"}
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	ev := &domain.Event{OrgID: "org1", UserID: "u1", EventType: "login_success", Source: "auth", CreatedAt: created}

	if err := p.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "org1" {
		t.Errorf("key = %q, want org1", msg.Key)
	}
	var decoded domain.Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if decoded.UserID != "u1" || decoded.EventType != "login_success" || !decoded.CreatedAt.Equal(created) {
		t.Errorf("payload = %+v", decoded)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "login_success" {
		t.Errorf("headers = %+v", msg.Headers)
	}
}

func TestKafkaProducer_EmitWithoutOrgHasNoKey(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, topic: "auth-events"}
	if err := p.Emit(context.Background(), &domain.Event{EventType: "login_failure"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if w.msgs[0].Key != nil {
		t.Errorf("key = %q, want nil", w.msgs[0].Key)
	}
}

func TestKafkaProducer_EmitError(t *testing.T) {
	boom := errors.New("broker down")
	w := &fakeWriter{err: boom}
	p := &KafkaProducer{writer: w, topic: "auth-events"}
	if err := p.Emit(context.Background(), &domain.Event{EventType: "x"}); !errors.Is(err, boom) {
		t.Errorf("Emit err = %v, want %v", err, boom)
	}
	if err := p.Close(); err != nil || w.closed != 1 {
		t.Errorf("Close = %v, closed = %d", err, w.closed)
	}
}
