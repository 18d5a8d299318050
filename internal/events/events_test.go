package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/streadway/amqp"

	"execsummary-backend/internal/shared/telemetry"
)

type fakeChannel struct {
	declared  []string
	kinds     []string
	published []amqp.Publishing
	keys      []string
	exchanges []string
	closed    bool
	failWith  error
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name)
	f.kinds = append(f.kinds, kind)
	return nil
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.exchanges = append(f.exchanges, exchange)
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisherPublishesJSON(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "")
	if err != nil {
		t.Fatalf("newAMQPPublisher: %v", err)
	}
	if len(ch.declared) != 1 || ch.declared[0] != "candidate_updates" || ch.kinds[0] != "topic" {
		t.Fatalf("unexpected exchange declaration %v %v", ch.declared, ch.kinds)
	}

	at := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	err = p.Publish(context.Background(), Event{Type: TypeCandidateUpdated, CandidateID: "c-1", Synthesis: "merge-results", At: at})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ch.keys[0] != "candidate.c-1" || ch.exchanges[0] != "candidate_updates" {
		t.Fatalf("unexpected routing %s/%s", ch.exchanges[0], ch.keys[0])
	}
	msg := ch.published[0]
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("unexpected message properties %+v", msg)
	}
	var decoded Event
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.Synthesis != "merge-results" || !decoded.At.Equal(at) {
		t.Fatalf("unexpected decoded event %+v", decoded)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ch.closed {
		t.Fatalf("expected channel closed")
	}
	if err := p.Publish(context.Background(), Event{CandidateID: "c-1"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestEmitLogsFailuresOnly(t *testing.T) {
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	ch := &fakeChannel{failWith: errors.New("connection reset")}
	p, err := newAMQPPublisher(ch, "x")
	if err != nil {
		t.Fatalf("newAMQPPublisher: %v", err)
	}
	Emit(context.Background(), p, Event{Type: TypeCandidateUpdated, CandidateID: "c-2"})
	if !strings.Contains(buf.String(), "events.publish_failed") {
		t.Fatalf("expected failure log, got %q", buf.String())
	}

	Emit(context.Background(), nil, Event{CandidateID: "c-3"})
	Emit(context.Background(), Noop{}, Event{CandidateID: "c-3"})
}
