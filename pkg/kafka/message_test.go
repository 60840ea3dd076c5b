package kafka

import (
	"context"
	"errors"
	"testing"
)

func TestMessageBuilder_Build(t *testing.T) {
	msg, err := NewMessage().
		WithKey("Books:42").
		WithValue(map[string]any{"action": "delete"}).
		WithEventType("audit.delete").
		WithActor("librarian:1").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.GetEventID() == "" {
		t.Error("expected an event id to be generated")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected a timestamp header")
	}
	if msg.Headers[HeaderActor] != "librarian:1" {
		t.Errorf("expected actor header, got %q", msg.Headers[HeaderActor])
	}

	var decoded map[string]any
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded["action"] != "delete" {
		t.Errorf("unexpected payload %v", decoded)
	}
}

func TestMessageBuilder_UnencodableValue(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{Headers: map[string]string{}}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("expected retry count 12, got %d", got)
	}
}

func TestDLQCopy_DoesNotMutateOriginal(t *testing.T) {
	msg := Message{Key: "k", Headers: map[string]string{HeaderEventID: "e1"}}
	parked := dlqCopy(msg, "audit", errors.New("boom"))

	if parked.Headers[HeaderDLQError] != "boom" || parked.Headers[HeaderOriginalTopic] != "audit" {
		t.Errorf("unexpected DLQ headers %v", parked.Headers)
	}
	if _, ok := msg.Headers[HeaderDLQError]; ok {
		t.Error("original headers must not be modified")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"transient wrapper", NewTransientError("store", errors.New("x")), ErrorTypeTransient},
		{"permanent wrapper", NewPermanentError("decode", errors.New("x")), ErrorTypePermanent},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"network text", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"unknown", errors.New("something odd"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("store", errors.New("x"))
	if !ShouldRetry(transient, 0, 3) {
		t.Error("expected transient error under the limit to be retried")
	}
	if ShouldRetry(transient, 3, 3) {
		t.Error("expected retries to stop at the limit")
	}
	if ShouldRetry(NewPermanentError("decode", errors.New("x")), 0, 3) {
		t.Error("permanent errors must not be retried")
	}
}
