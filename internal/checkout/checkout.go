// Package checkout confirms a payment for an order with the payment gateway
// and checks the signature the gateway returns.
package checkout

import (
	"bufio"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ErrCancelled is returned when the payer abandons the checkout.
var ErrCancelled = errors.New("payment cancelled")

// Prefill is payer information shown on the checkout form.
type Prefill struct {
	Name    string
	Email   string
	Contact string
}

// Request describes the order to pay.
type Request struct {
	KeyID       string
	OrderID     string
	Amount      int64 // paise
	Currency    string
	Name        string
	Description string
	Prefill     Prefill
}

// Result is what a completed checkout hands back for verification.
type Result struct {
	PaymentID string
	OrderID   string
	Signature string
}

// Checkout runs the payment flow for one order.
type Checkout interface {
	Open(ctx context.Context, req Request) (Result, error)
}

// Sign computes the payment signature: hex HMAC-SHA256 of
// "order_id|payment_id" keyed by the merchant secret.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the order and payment.
func Verify(orderID, paymentID, signature, secret string) bool {
	want := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(signature)))
}

// Sandbox completes every checkout immediately with a correctly signed
// payment. It stands in for the gateway against the reference server.
type Sandbox struct {
	Secret string

	// Cancel makes every checkout end with ErrCancelled.
	Cancel bool
}

func (s Sandbox) Open(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if s.Cancel {
		return Result{}, ErrCancelled
	}
	paymentID := "pay_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:14]
	return Result{
		PaymentID: paymentID,
		OrderID:   req.OrderID,
		Signature: Sign(req.OrderID, paymentID, s.Secret),
	}, nil
}

// Prompt shows the order on Out and reads the payment id and signature the
// payer got from the gateway from In. An empty payment id cancels.
type Prompt struct {
	In  io.Reader
	Out io.Writer
}

func (p Prompt) Open(ctx context.Context, req Request) (Result, error) {
	fmt.Fprintf(p.Out, "Pay %s %.2f for %s (order %s, key %s)\n",
		req.Currency, float64(req.Amount)/100, req.Description, req.OrderID, req.KeyID)

	r := bufio.NewReader(p.In)
	paymentID, err := readLine(ctx, r, p.Out, "Payment id (empty to cancel): ")
	if err != nil {
		return Result{}, err
	}
	if paymentID == "" {
		return Result{}, ErrCancelled
	}
	signature, err := readLine(ctx, r, p.Out, "Signature: ")
	if err != nil {
		return Result{}, err
	}
	return Result{PaymentID: paymentID, OrderID: req.OrderID, Signature: signature}, nil
}

func readLine(ctx context.Context, r *bufio.Reader, out io.Writer, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(out, prompt)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
