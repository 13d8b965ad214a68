package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/infra/gateway"
)

type fakeGateway struct {
	mu     sync.Mutex
	calls  []gateway.ChargeRequest
	charge *gateway.Charge
	err    error
}

func (f *fakeGateway) Charge(_ context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	c := *f.charge
	return &c, nil
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func capturedCharge(id string, amount, net int64) *gateway.Charge {
	return &gateway.Charge{ID: id, Status: "successful", Captured: true, AmountCaptured: amount, NetAmount: net}
}

func declinedCharge(code, message string) *gateway.Charge {
	return &gateway.Charge{ID: "chrg_declined", Status: "failed", FailureCode: code, FailureMessage: message}
}

var errDiskFull = errors.New("disk full")

type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) CommitPayment(context.Context, uint, *billing.Payment) error {
	s.calls++
	return s.err
}

func (s *failingStore) FindPaymentByTransaction(context.Context, string) (*billing.Payment, error) {
	return nil, billing.ErrPaymentNotFound
}

// captureLog returns a JSON logger and a reader for the events it wrote.
func captureLog(t *testing.T) (*slog.Logger, func() []map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, func() []map[string]any {
		var events []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			var ev map[string]any
			if err := json.Unmarshal([]byte(line), &ev); err != nil {
				t.Fatalf("decode log line %q: %v", line, err)
			}
			events = append(events, ev)
		}
		return events
	}
}

func findEvent(events []map[string]any, msg string) map[string]any {
	for _, ev := range events {
		if ev["msg"] == msg {
			return ev
		}
	}
	return nil
}
