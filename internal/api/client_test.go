package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/gateway"
)

// setupTestClient serves handler and returns a client pointed at it.
func setupTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(gateway.New(server.URL, nil))
}

func TestLogin(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body forms.Login
		json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "asha" {
			t.Errorf("username = %q", body.Username)
		}
		w.Write([]byte(`{"status":"success","msg":"Welcome","token_type":"bearer","access_token":"jwt",
			"data":{"id":1,"name":"Asha","username":"asha","is_expired":true}}`))
	})

	res, err := client.Login(context.Background(), forms.Login{Username: "asha", Password: "secret"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Token != "Bearer jwt" {
		t.Errorf("Token = %q", res.Token)
	}
	if res.User.Name != "Asha" || !res.User.IsExpired || res.User.ID != "1" {
		t.Errorf("unexpected user %+v", res.User)
	}
}

func TestErrorEnvelope(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","msg":"Invalid credentials"}`))
	})

	_, err := client.Login(context.Background(), forms.Login{Username: "asha", Password: "wrong!"})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Msg != "Invalid credentials" {
		t.Errorf("Msg = %q", apiErr.Msg)
	}
}

func TestBulkRequests(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody map[string]any
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		gotBody = nil
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status":"success","msg":"Updated"}`))
	})
	ctx := context.Background()

	msg, err := client.ChangeClass(ctx, []string{"s1", "s2"}, "c-9", true)
	if err != nil || msg != "Updated" {
		t.Fatalf("ChangeClass = %q, %v", msg, err)
	}
	if gotPath != "/student/change/class" || gotQuery != "updateFees=true" {
		t.Errorf("request = %s?%s", gotPath, gotQuery)
	}
	if gotBody["class"] != "c-9" || len(gotBody["student_ids"].([]any)) != 2 {
		t.Errorf("body = %v", gotBody)
	}

	if _, err := client.ChangeStatus(ctx, []string{"s1"}, false); err != nil {
		t.Fatalf("ChangeStatus failed: %v", err)
	}
	if gotPath != "/student/change/status" || gotBody["status"] != "inactive" {
		t.Errorf("request = %s body = %v", gotPath, gotBody)
	}
}

func TestFeeRequests(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody = nil
		json.NewDecoder(r.Body).Decode(&gotBody)
		switch r.URL.Path {
		case "/add-fees/42":
			w.Write([]byte(`{"status":"success","data":{"id":7,"uuid":"u1","year_month":"March 2025","is_paid":false,"monthly_fees":"500.00"}}`))
		default:
			w.Write([]byte(`{"status":"success","msg":"Fee updated"}`))
		}
	})
	ctx := context.Background()

	fee, _, err := client.AddFee(ctx, "42", forms.AddFee{YearMonth: "March 2025", Amount: 500})
	if err != nil {
		t.Fatalf("AddFee failed: %v", err)
	}
	if fee.UUID != "u1" || fee.MonthlyFees != 500 || fee.YearMonth != "March 2025" {
		t.Errorf("unexpected fee %+v", fee)
	}
	if gotBody["year_month"] != "March 2025" || gotBody["amount"] != 500.0 || gotBody["is_paid"] != false {
		t.Errorf("add fee body = %v", gotBody)
	}

	if err := client.MarkFeePaid(ctx, "u1"); err != nil {
		t.Fatalf("MarkFeePaid failed: %v", err)
	}
	if gotPath != "/fee/update/u1" || gotBody["is_paid"] != true {
		t.Errorf("mark paid request = %s %v", gotPath, gotBody)
	}
}

func TestCreateOrder(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","order_id":"order_abc","amount":19900,"currency":"INR"}`))
	})

	order, err := client.CreateOrder(context.Background(), "plan-1")
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.ID != "order_abc" || order.Amount != 19900 || order.Currency != "INR" || order.PlanUUID != "plan-1" {
		t.Errorf("unexpected order %+v", order)
	}
}

func TestCreateOrderWithoutID(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","amount":19900}`))
	})
	if _, err := client.CreateOrder(context.Background(), "plan-1"); err == nil {
		t.Fatal("expected error for missing order_id")
	}
}

func TestStudentsDecode(t *testing.T) {
	client := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":[
			{"id":1,"name":"Ravi","mobile":"9876543210","status":"active","unpaid_fees_count":1,
			 "student_info":{"uuid":"s1","class":{"uuid":"c1","class_name":"Grade 5"}}},
			{"id":"2","name":"Meena","mobile":"9876500000","active":false}
		]}`))
	})

	students, err := client.Students(context.Background())
	if err != nil {
		t.Fatalf("Students failed: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(students))
	}
	if students[0].Key() != "s1" || students[0].ClassName() != "Grade 5" {
		t.Errorf("unexpected first student %+v", students[0])
	}
	if students[1].Key() != "2" || students[1].IsActive() {
		t.Errorf("unexpected second student %+v", students[1])
	}
}
