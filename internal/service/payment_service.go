package service

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/tuitionbook/internal/billing"
	"github.com/mmynk/tuitionbook/internal/checkout"
	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/middleware"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/storage"
)

// Currency of every order.
const Currency = "INR"

// PaymentService serves subscription plans and their checkout.
type PaymentService struct {
	store     storage.Store
	keySecret string
	logger    *slog.Logger
	now       func() time.Time
}

// NewPaymentService creates a PaymentService verifying payment signatures
// with keySecret.
func NewPaymentService(store storage.Store, keySecret string, logger *slog.Logger) *PaymentService {
	return &PaymentService{store: store, keySecret: keySecret, logger: logger, now: time.Now}
}

// Routes mounts the endpoints on r, which must carry RequireAuth. Plans stay
// reachable for expired tuitions.
func (s *PaymentService) Routes(r chi.Router) {
	r.Get("/plans", s.ListPlans)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(models.RoleAdmin))
		r.Post("/payment/order", s.CreateOrder)
		r.Post("/payment/verify", s.VerifyPayment)
	})
}

// ListPlans returns the subscription plans.
func (s *PaymentService) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.ListPlans(r.Context())
	if err != nil {
		storeFailure(w, "Plans", err)
		return
	}
	success(w, "", plans, nil)
}

// CreateOrder opens an order for a plan. order_id, amount (paise) and
// currency are returned at the top level for the checkout.
func (s *PaymentService) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req forms.PaymentOrder
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)
	s.logger.Info("CreateOrder request received", "tuition_id", tuitionID, "plan", req.PlanUUID)

	plan, err := s.store.GetPlan(ctx, req.PlanUUID)
	if err != nil {
		storeFailure(w, "Plan", err, "plan", req.PlanUUID)
		return
	}

	order := &models.Order{
		PlanUUID:  plan.UUID,
		TuitionID: tuitionID,
		Amount:    billing.Paise(plan.Price.Float()),
		Currency:  Currency,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		storeFailure(w, "Order", err, "tuition_id", tuitionID)
		return
	}

	s.logger.Info("Order created", "tuition_id", tuitionID, "order", order.ID, "amount", order.Amount)
	success(w, "Order created", order, envelope{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
	})
}

// VerifyPayment checks the checkout signature, records the payment and
// extends the subscription by the plan's duration.
func (s *PaymentService) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req forms.PaymentVerify
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	tuitionID := middleware.GetTuitionID(ctx)
	s.logger.Info("VerifyPayment request received", "tuition_id", tuitionID, "order", req.OrderID)

	order, err := s.store.GetOrder(ctx, req.OrderID)
	if err != nil || order.TuitionID != tuitionID {
		failure(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.PlanUUID != req.PlanUUID {
		failure(w, http.StatusUnprocessableEntity, "Order does not match the plan")
		return
	}
	if !checkout.Verify(req.OrderID, req.PaymentID, req.Signature, s.keySecret) {
		s.logger.Warn("Payment signature mismatch", "tuition_id", tuitionID, "order", req.OrderID)
		failure(w, http.StatusUnprocessableEntity, "Payment verification failed")
		return
	}

	plan, err := s.store.GetPlan(ctx, order.PlanUUID)
	if err != nil {
		storeFailure(w, "Plan", err, "plan", order.PlanUUID)
		return
	}
	tuition, err := s.store.GetTuition(ctx, tuitionID)
	if err != nil {
		storeFailure(w, "Tuition", err, "tuition_id", tuitionID)
		return
	}

	expiresAt := billing.ExtendExpiry(tuition.ExpiresAt, s.now(), plan.DurationDays)
	if err := s.store.CompleteOrder(ctx, order.ID, req.PaymentID, expiresAt); err != nil {
		storeFailure(w, "Payment", err, "order", order.ID)
		return
	}

	s.logger.Info("Payment verified", "tuition_id", tuitionID, "order", order.ID, "expires_at", expiresAt)
	success(w, "Payment successful", envelope{"expires_at": expiresAt, "is_expired": false}, envelope{
		"transaction_id": req.PaymentID,
	})
}
