package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/tuitionbook/internal/api"
	"github.com/mmynk/tuitionbook/internal/auth"
	"github.com/mmynk/tuitionbook/internal/checkout"
	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/gateway"
	"github.com/mmynk/tuitionbook/internal/ledger"
	"github.com/mmynk/tuitionbook/internal/middleware"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/session"
	"github.com/mmynk/tuitionbook/internal/storage/sqlite"
)

const testSecret = "checkout-secret"

type testEnv struct {
	server *httptest.Server
	store  *sqlite.SQLiteStore
}

// setupTestServer starts the API over a temp database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewRouter(Config{
		Store:          store,
		Authenticator:  auth.NewPasswordAuthenticator(store, 14),
		JWT:            auth.NewJWTManager("test-secret", time.Hour),
		CheckoutSecret: testSecret,
		Metrics:        middleware.NewMetrics(prometheus.NewRegistry()),
		Logger:         logger,
	})
	server := httptest.NewServer(handler)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return &testEnv{server: server, store: store}
}

// client returns an API client with its own session.
func (e *testEnv) client(t *testing.T) (*api.Client, *session.Store) {
	t.Helper()
	sess := session.New(session.NewMemoryStorage())
	gw := gateway.New(e.server.URL, sess, gateway.WithLogoutHook(sess.ForceLogout))
	return api.New(gw), sess
}

// signedIn registers a tuition with username and signs its admin in.
func (e *testEnv) signedIn(t *testing.T, username string) (*api.Client, *session.Store) {
	t.Helper()
	ctx := context.Background()
	c, sess := e.client(t)

	_, err := c.Register(ctx, forms.Signup{
		TuitionName:     "Bright Minds " + username,
		Name:            "Admin " + username,
		Username:        username,
		Email:           username + "@example.com",
		Mobile:          "9876543210",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	res, err := c.Login(ctx, forms.Login{Username: username, Password: "secret1"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := sess.Login(ctx, session.Payload{User: res.User, Token: res.Token, TuitionInfo: res.User.Tuition}); err != nil {
		t.Fatalf("session Login failed: %v", err)
	}
	return c, sess
}

func newStudent(name string, classUUID string, fee float64) forms.Student {
	return forms.Student{
		Name:        name,
		Mobile:      "9000000001",
		Gender:      "female",
		Class:       classUUID,
		MonthlyFees: fee,
	}
}

func TestLogin(t *testing.T) {
	env := setupTestServer(t)
	c, sess := env.signedIn(t, "asha")

	st := sess.State()
	if !st.IsAuthenticated || !strings.HasPrefix(st.Token, "Bearer ") {
		t.Fatalf("session = %+v", st)
	}
	if st.User.Role != models.RoleAdmin || st.User.IsExpired || st.TuitionInfo.Name != "Bright Minds asha" {
		t.Errorf("user = %+v, tuition = %+v", st.User, st.TuitionInfo)
	}

	_, err := c.Login(context.Background(), forms.Login{Username: "asha", Password: "wrong-password"})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Msg != auth.ErrInvalidCredentials.Error() {
		t.Errorf("wrong password err = %v", err)
	}

	_, err = c.Register(context.Background(), forms.Signup{
		TuitionName: "x", Name: "x", Username: "asha", Email: "other@example.com",
		Mobile: "9876543210", Password: "secret1", ConfirmPassword: "secret1",
	})
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Errorf("duplicate register err = %v", err)
	}
}

func TestUnauthorizedResetsSession(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	c, sess := env.client(t)

	if err := sess.Login(ctx, session.Payload{User: &models.User{Username: "ghost"}, Token: "Bearer forged"}); err != nil {
		t.Fatalf("session Login failed: %v", err)
	}

	_, err := c.Students(ctx)
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if st := sess.State(); st.IsAuthenticated || st.User != nil || st.Token != "" {
		t.Errorf("session survived 401: %+v", st)
	}
}

func TestValidationError(t *testing.T) {
	env := setupTestServer(t)
	c, _ := env.signedIn(t, "asha")

	_, _, err := c.CreateStudent(context.Background(), forms.Student{Name: "Ravi"})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity || apiErr.Msg == "" {
		t.Errorf("err = %v, want 422 with a message", err)
	}
}

func TestStudentsAndBulkChanges(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	c, _ := env.signedIn(t, "asha")

	grade5, _, err := c.CreateClass(ctx, forms.Class{ClassName: "Grade 5", MonthlyFees: 500})
	if err != nil {
		t.Fatalf("CreateClass failed: %v", err)
	}
	grade6, _, err := c.CreateClass(ctx, forms.Class{ClassName: "Grade 6", MonthlyFees: 700})
	if err != nil {
		t.Fatalf("CreateClass failed: %v", err)
	}

	var keys []string
	for _, name := range []string{"Ravi", "Meena", "Arjun"} {
		st, _, err := c.CreateStudent(ctx, newStudent(name, grade5.UUID, 500))
		if err != nil {
			t.Fatalf("CreateStudent(%s) failed: %v", name, err)
		}
		if st.ClassName() != "Grade 5" {
			t.Errorf("%s class = %q", name, st.ClassName())
		}
		keys = append(keys, st.Key())
	}

	t.Run("change status", func(t *testing.T) {
		msg, err := c.ChangeStatus(ctx, keys[:2], false)
		if err != nil {
			t.Fatalf("ChangeStatus failed: %v", err)
		}
		if msg != "Status changed for 2 students" {
			t.Errorf("msg = %q", msg)
		}
		list, err := c.Students(ctx)
		if err != nil {
			t.Fatalf("Students failed: %v", err)
		}
		inactive := 0
		for _, s := range list {
			if !s.IsActive() {
				inactive++
			}
		}
		if inactive != 2 {
			t.Errorf("inactive = %d, want 2", inactive)
		}
	})

	t.Run("change class with fees", func(t *testing.T) {
		if _, err := c.ChangeClass(ctx, keys[2:], grade6.UUID, true); err != nil {
			t.Fatalf("ChangeClass failed: %v", err)
		}
		st, err := c.Student(ctx, keys[2])
		if err != nil {
			t.Fatalf("Student failed: %v", err)
		}
		if st.ClassName() != "Grade 6" || st.MonthlyFees() != 700 {
			t.Errorf("student = %s at %v", st.ClassName(), st.MonthlyFees())
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		_, err := c.ChangeClass(ctx, keys, "missing", false)
		var apiErr *api.Error
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
			t.Errorf("err = %v, want 404", err)
		}
	})

	t.Run("update class", func(t *testing.T) {
		updated, _, err := c.UpdateClass(ctx, grade5.UUID, forms.Class{ClassName: "Grade 5A", MonthlyFees: 550})
		if err != nil {
			t.Fatalf("UpdateClass failed: %v", err)
		}
		if updated.ClassName != "Grade 5A" || updated.MonthlyFees != 550 {
			t.Errorf("class = %+v", updated)
		}
	})
}

func TestFees(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	c, _ := env.signedIn(t, "asha")

	st, _, err := c.CreateStudent(ctx, newStudent("Ravi", "", 500))
	if err != nil {
		t.Fatalf("CreateStudent failed: %v", err)
	}

	fee, _, err := c.AddFee(ctx, st.ID.String(), forms.AddFee{YearMonth: "March 2025"})
	if err != nil {
		t.Fatalf("AddFee failed: %v", err)
	}
	if fee.UUID == "" || fee.MonthlyFees != 500 || fee.IsPaid {
		t.Fatalf("fee = %+v", fee)
	}

	_, _, err = c.AddFee(ctx, st.UUID, forms.AddFee{YearMonth: "March 2025", Amount: 900})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Errorf("duplicate month err = %v", err)
	}
	_, _, err = c.AddFee(ctx, st.UUID, forms.AddFee{YearMonth: "2025-03"})
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("bad label err = %v", err)
	}

	// the ledger round trip the profile screen performs
	full, err := c.Student(ctx, st.UUID)
	if err != nil {
		t.Fatalf("Student failed: %v", err)
	}
	l := ledger.FromFees(full.Info.Fees)
	if err := l.Begin("March 2025"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := l.Commit(ctx, c); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	full, err = c.Student(ctx, st.UUID)
	if err != nil {
		t.Fatalf("Student failed: %v", err)
	}
	if len(full.Info.Fees) != 1 || !full.Info.Fees[0].IsPaid || full.Info.Fees[0].MonthlyFees != 500 {
		t.Errorf("fees after mark paid = %+v", full.Info.Fees)
	}

	if err := c.MarkFeePaid(ctx, "missing"); !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("missing fee err = %v", err)
	}
}

func TestGenerateFeesAndDashboard(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	c, _ := env.signedIn(t, "asha")

	if _, _, err := c.CreateStudent(ctx, newStudent("Ravi", "", 500)); err != nil {
		t.Fatalf("CreateStudent failed: %v", err)
	}
	st, _, err := c.CreateStudent(ctx, newStudent("Meena", "", 300))
	if err != nil {
		t.Fatalf("CreateStudent failed: %v", err)
	}
	if _, err := c.ChangeStatus(ctx, []string{st.Key()}, false); err != nil {
		t.Fatalf("ChangeStatus failed: %v", err)
	}

	msg, err := c.GenerateFees(ctx, false)
	if err != nil {
		t.Fatalf("GenerateFees failed: %v", err)
	}
	if !strings.HasPrefix(msg, "Generated 2 fee records") {
		t.Errorf("msg = %q", msg)
	}
	msg, err = c.GenerateFees(ctx, false)
	if err != nil {
		t.Fatalf("GenerateFees failed: %v", err)
	}
	if msg != "Fees are already up to date" {
		t.Errorf("second run msg = %q", msg)
	}

	stats, err := c.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if stats.TotalActiveStudents != 1 || stats.TotalInactiveStudents != 1 || stats.TotalFeesDue != 1000 {
		t.Errorf("stats = %+v", stats)
	}

	collection, err := c.MonthlyCollection(ctx)
	if err != nil {
		t.Fatalf("MonthlyCollection failed: %v", err)
	}
	if len(collection) != 2 {
		t.Errorf("collection = %+v", collection)
	}
}

func TestTenantIsolation(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	asha, _ := env.signedIn(t, "asha")
	ravi, _ := env.signedIn(t, "ravi")

	st, _, err := asha.CreateStudent(ctx, newStudent("Meena", "", 500))
	if err != nil {
		t.Fatalf("CreateStudent failed: %v", err)
	}

	list, err := ravi.Students(ctx)
	if err != nil {
		t.Fatalf("Students failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("other tenant sees %d students", len(list))
	}
	_, err = ravi.Student(ctx, st.UUID)
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("cross-tenant fetch err = %v", err)
	}
	if msg, err := ravi.ChangeStatus(ctx, []string{st.UUID}, false); err != nil || msg != "Status changed for 0 students" {
		t.Errorf("cross-tenant bulk = %q, %v", msg, err)
	}
}

func TestPayment(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	c, sess := env.signedIn(t, "asha")

	plans, err := c.Plans(ctx)
	if err != nil {
		t.Fatalf("Plans failed: %v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("plans = %+v", plans)
	}
	plan := plans[0]

	before, err := env.store.GetTuition(ctx, sessTuition(t, env, sess))
	if err != nil {
		t.Fatalf("GetTuition failed: %v", err)
	}

	order, err := c.CreateOrder(ctx, plan.UUID)
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.Amount != int64(plan.Price*100) || order.Currency != Currency {
		t.Errorf("order = %+v", order)
	}

	t.Run("bad signature", func(t *testing.T) {
		_, _, err := c.VerifyPayment(ctx, forms.PaymentVerify{
			PaymentID: "pay_1", OrderID: order.ID, Signature: "deadbeef", PlanUUID: plan.UUID,
		})
		var apiErr *api.Error
		if !errors.As(err, &apiErr) || apiErr.Msg != "Payment verification failed" {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("verified", func(t *testing.T) {
		res, err := checkout.Sandbox{Secret: testSecret}.Open(ctx, checkout.Request{OrderID: order.ID})
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		txID, _, err := c.VerifyPayment(ctx, forms.PaymentVerify{
			PaymentID: res.PaymentID, OrderID: res.OrderID, Signature: res.Signature, PlanUUID: plan.UUID,
		})
		if err != nil {
			t.Fatalf("VerifyPayment failed: %v", err)
		}
		if txID != res.PaymentID {
			t.Errorf("transaction id = %q, want %q", txID, res.PaymentID)
		}

		after, err := env.store.GetTuition(ctx, before.UUID)
		if err != nil {
			t.Fatalf("GetTuition failed: %v", err)
		}
		want := time.Unix(before.ExpiresAt, 0).AddDate(0, 0, plan.DurationDays).Unix()
		if after.ExpiresAt != want {
			t.Errorf("expires_at = %d, want %d", after.ExpiresAt, want)
		}

		// an order is paid once
		_, _, err = c.VerifyPayment(ctx, forms.PaymentVerify{
			PaymentID: res.PaymentID, OrderID: res.OrderID, Signature: res.Signature, PlanUUID: plan.UUID,
		})
		if err == nil {
			t.Error("replayed payment accepted")
		}
	})
}

func sessTuition(t *testing.T, env *testEnv, sess *session.Store) string {
	t.Helper()
	user, err := env.store.GetUser(context.Background(), sess.State().User.UUID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	return user.TuitionID
}

func TestProfileAndAccount(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	c, _ := env.signedIn(t, "asha")

	user, _, err := c.UpdateProfile(ctx, forms.Profile{UpiID: "asha@upi", TuitionName: "Brighter Minds"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if user.UpiID != "asha@upi" || user.Tuition == nil || user.Tuition.Name != "Brighter Minds" {
		t.Errorf("user = %+v", user)
	}

	if _, err := c.UpdatePassword(ctx, forms.UpdatePassword{
		Password: "wrong", NewPassword: "newsecret", ConfirmPassword: "newsecret",
	}); err == nil {
		t.Error("wrong current password accepted")
	}
	if _, err := c.UpdatePassword(ctx, forms.UpdatePassword{
		Password: "secret1", NewPassword: "newsecret", ConfirmPassword: "newsecret",
	}); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	if err := c.Logout(ctx); err != nil {
		t.Errorf("Logout failed: %v", err)
	}

	if _, err := c.DeleteAccount(ctx, forms.DeleteAccount{Password: "newsecret"}); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if _, err := env.store.GetUserByLogin(ctx, "asha"); err == nil {
		t.Error("user survived account deletion")
	}
}
