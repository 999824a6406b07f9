package notification

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/placemaking/walletpass/internal/logging"
)

func TestLoggerNotifierWritesPassID(t *testing.T) {
	var buf bytes.Buffer
	n := NewLoggerNotifier(logging.NewWithWriter(&buf, "info", "json"))

	if err := n.Send(context.Background(), Message{Kind: KindPassIssued, Destination: "3388.coupon1", Body: "Free Coffee"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"kind":"wallet_pass_issued"`) || !strings.Contains(out, `"pass_id":"3388.coupon1"`) {
		t.Fatalf("unexpected log line %s", out)
	}
}

func TestNilLoggerNotifier(t *testing.T) {
	var n *LoggerNotifier
	if err := n.Send(context.Background(), Message{}); err != nil {
		t.Fatalf("expected nil notifier to be a no-op, got %v", err)
	}
}
