package screens

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mmynk/tuitionbook/internal/checkout"
	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/session"
)

// PlansAPI is what the plans screen needs from the API.
type PlansAPI interface {
	Plans(ctx context.Context) ([]models.Plan, error)
	CreateOrder(ctx context.Context, planUUID string) (*models.Order, error)
	VerifyPayment(ctx context.Context, f forms.PaymentVerify) (string, string, error)
}

// UserSession is the part of the session the plans and account screens use.
type UserSession interface {
	State() session.State
	Login(ctx context.Context, p session.Payload) error
	Logout(ctx context.Context) error
	UpdateUser(ctx context.Context, partial map[string]any) error
}

// Plans lists subscription plans and runs the purchase flow.
type Plans struct {
	api      PlansAPI
	checkout checkout.Checkout
	session  UserSession
	keyID    string
	notify   Notifier
	logger   *slog.Logger
	g        guard

	mu    sync.Mutex
	plans []models.Plan
}

// NewPlans creates the plans screen. keyID is the public checkout key.
func NewPlans(a PlansAPI, co checkout.Checkout, s UserSession, keyID string, n Notifier) *Plans {
	return &Plans{
		api:      a,
		checkout: co,
		session:  s,
		keyID:    keyID,
		notify:   n,
		logger:   slog.Default().With("screen", "plans"),
	}
}

// Load fetches the plans.
func (p *Plans) Load(ctx context.Context) error {
	tok := p.g.issue()
	plans, err := p.api.Plans(ctx)
	if !p.g.current(tok) {
		return ErrStale
	}
	if err != nil {
		return fail(p.notify, err)
	}
	p.mu.Lock()
	p.plans = plans
	p.mu.Unlock()
	return nil
}

// List returns the loaded plans.
func (p *Plans) List() []models.Plan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Plan(nil), p.plans...)
}

// Subscribe buys the plan: it opens an order, runs the checkout, has the
// server verify the payment, and marks the signed-in user as not expired.
// It returns the transaction id.
func (p *Plans) Subscribe(ctx context.Context, planUUID string) (string, error) {
	release, err := p.g.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	p.logger.Info("Subscribing", "plan", planUUID)
	order, err := p.api.CreateOrder(ctx, planUUID)
	if err != nil {
		p.logger.Error("Failed to create order", "plan", planUUID, "error", err)
		return "", fail(p.notify, err)
	}

	res, err := p.checkout.Open(ctx, p.request(order, planUUID))
	if err != nil {
		if errors.Is(err, checkout.ErrCancelled) {
			p.notify.Error(Message(err))
			return "", err
		}
		p.logger.Error("Checkout failed", "order", order.ID, "error", err)
		return "", fail(p.notify, err)
	}

	txID, msg, err := p.api.VerifyPayment(ctx, forms.PaymentVerify{
		PaymentID: res.PaymentID,
		OrderID:   res.OrderID,
		Signature: res.Signature,
		PlanUUID:  planUUID,
	})
	if err != nil {
		p.logger.Error("Payment verification failed", "order", order.ID, "error", err)
		return "", fail(p.notify, err)
	}

	if err := p.session.UpdateUser(ctx, map[string]any{"is_expired": false}); err != nil {
		p.logger.Error("Failed to update session user", "error", err)
	}
	p.logger.Info("Subscription complete", "plan", planUUID, "transaction", txID)
	if msg != "" {
		p.notify.Success(msg)
	}
	return txID, nil
}

func (p *Plans) request(order *models.Order, planUUID string) checkout.Request {
	req := checkout.Request{
		KeyID:    p.keyID,
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
	}
	for _, plan := range p.List() {
		if plan.UUID == planUUID {
			req.Description = plan.Name
		}
	}
	st := p.session.State()
	if st.TuitionInfo != nil {
		req.Name = st.TuitionInfo.Name
	}
	if u := st.User; u != nil {
		req.Prefill = checkout.Prefill{Name: u.Name, Email: u.Email, Contact: u.Mobile}
	}
	return req
}
