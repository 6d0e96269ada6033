package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/models"
)

// Plans lists the subscription plans.
func (c *Client) Plans(ctx context.Context) ([]models.Plan, error) {
	var out []models.Plan
	if err := c.get(ctx, "/plans", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOrder opens a payment order for the plan. The order id and amount
// arrive as top-level envelope fields.
func (c *Client) CreateOrder(ctx context.Context, planUUID string) (*models.Order, error) {
	env, err := c.call(ctx, http.MethodPost, "/payment/order", forms.PaymentOrder{PlanUUID: planUUID}, nil)
	if err != nil {
		return nil, err
	}
	order := &models.Order{PlanUUID: planUUID}
	if _, err := env.Field("order_id", &order.ID); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("order response has no order_id")
	}
	var amount models.Amount
	if _, err := env.Field("amount", &amount); err != nil {
		return nil, err
	}
	order.Amount = int64(amount)
	if _, err := env.Field("currency", &order.Currency); err != nil {
		return nil, err
	}
	return order, nil
}

// VerifyPayment confirms a completed checkout and returns the transaction id.
func (c *Client) VerifyPayment(ctx context.Context, f forms.PaymentVerify) (string, string, error) {
	env, err := c.call(ctx, http.MethodPost, "/payment/verify", f, nil)
	if err != nil {
		return "", "", err
	}
	var txID string
	if _, err := env.Field("transaction_id", &txID); err != nil {
		return "", "", err
	}
	return txID, env.Msg, nil
}
