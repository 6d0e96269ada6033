package checkout

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSignVerify(t *testing.T) {
	sig := Sign("order_1", "pay_1", "secret")
	if len(sig) != 64 {
		t.Fatalf("signature length = %d", len(sig))
	}
	if !Verify("order_1", "pay_1", sig, "secret") {
		t.Error("valid signature rejected")
	}
	if !Verify("order_1", "pay_1", strings.ToUpper(sig), "secret") {
		t.Error("signature check should ignore hex case")
	}
	for _, tc := range []struct{ order, pay, secret string }{
		{"order_2", "pay_1", "secret"},
		{"order_1", "pay_2", "secret"},
		{"order_1", "pay_1", "other"},
	} {
		if Verify(tc.order, tc.pay, sig, tc.secret) {
			t.Errorf("signature accepted for %+v", tc)
		}
	}
}

func TestSandbox(t *testing.T) {
	res, err := Sandbox{Secret: "s"}.Open(context.Background(), Request{OrderID: "order_1"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if res.OrderID != "order_1" || !strings.HasPrefix(res.PaymentID, "pay_") {
		t.Errorf("unexpected result %+v", res)
	}
	if !Verify(res.OrderID, res.PaymentID, res.Signature, "s") {
		t.Error("sandbox signature does not verify")
	}

	if _, err := (Sandbox{Cancel: true}).Open(context.Background(), Request{}); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

func TestPrompt(t *testing.T) {
	var out bytes.Buffer
	p := Prompt{In: strings.NewReader("pay_9\nabc123\n"), Out: &out}
	res, err := p.Open(context.Background(), Request{OrderID: "order_1", Amount: 19900, Currency: "INR"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if res.PaymentID != "pay_9" || res.Signature != "abc123" || res.OrderID != "order_1" {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(out.String(), "INR 199.00") {
		t.Errorf("prompt output %q", out.String())
	}

	p = Prompt{In: strings.NewReader("\n"), Out: &out}
	if _, err := p.Open(context.Background(), Request{}); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}
