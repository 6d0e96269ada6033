package netwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestCheckPublishesTransitions(t *testing.T) {
	var down atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			hj, _ := w.(http.Hijacker)
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	w := New(server.URL, time.Second)
	var seen []bool
	w.Subscribe(func(online bool) { seen = append(seen, online) })
	ctx := context.Background()

	if !w.Check(ctx) {
		t.Fatal("expected online")
	}
	down.Store(true)
	if w.Check(ctx) {
		t.Fatal("expected offline")
	}
	w.Check(ctx)
	down.Store(false)
	w.Check(ctx)

	if !reflect.DeepEqual(seen, []bool{false, true}) {
		t.Errorf("transitions = %v, want [false true]", seen)
	}
	if !w.Online() {
		t.Error("expected online at the end")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	w := New(server.URL, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
