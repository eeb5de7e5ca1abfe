package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *recorder) Redirect(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	return nil
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

func TestStartCheckoutWithoutTokenMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(srv.URL, rec)
	if err := c.StartCheckout(context.Background(), "", 2); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if atomic.LoadInt32(&hits) != 0 || len(rec.got()) != 0 {
		t.Fatal("unauthenticated checkout reached the network or redirected")
	}
}

func TestStartCheckoutRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plans/create-checkout-session" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		var body struct {
			PlanID uint `json:"planId"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.PlanID != 2 {
			t.Errorf("planId = %d", body.PlanID)
		}
		w.Write([]byte(`{"sessionId":"cs_1","url":"https://checkout.stripe.test/cs_1"}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	if err := New(srv.URL, rec).StartCheckout(context.Background(), "tok", 2); err != nil {
		t.Fatal(err)
	}
	if got := rec.got(); len(got) != 1 || got[0] != "https://checkout.stripe.test/cs_1" {
		t.Fatalf("redirects = %v", got)
	}
}

func TestStartCheckoutErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"server message", http.StatusConflict, `{"error":"You already have an active subscription"}`, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Status == 409 && apiErr.Message == "You already have an active subscription"
		}},
		{"no message", http.StatusBadGateway, `oops`, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Message != ""
		}},
		{"missing url", http.StatusOK, `{"sessionId":"cs_1"}`, func(err error) bool {
			return errors.Is(err, ErrNoRedirectURL)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			rec := &recorder{}
			err := New(srv.URL, rec).StartCheckout(context.Background(), "tok", 2)
			if !tc.check(err) {
				t.Fatalf("err = %v", err)
			}
			if len(rec.got()) != 0 {
				t.Fatal("redirected on failure")
			}
		})
	}
}

func TestConcurrentCheckoutsShareOneRequest(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte(`{"sessionId":"cs_1","url":"https://checkout.stripe.test/cs_1"}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(srv.URL, rec)

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.StartCheckout(context.Background(), "tok", 2)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}
	if got := rec.got(); len(got) != 1 {
		t.Fatalf("redirects = %v, want one", got)
	}
}

func TestOpenPortal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/plans/create-portal-session" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"url":"https://billing.stripe.test/p_1"}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	if err := New(srv.URL, rec).OpenPortal(context.Background(), "tok"); err != nil {
		t.Fatal(err)
	}
	if got := rec.got(); len(got) != 1 || got[0] != "https://billing.stripe.test/p_1" {
		t.Fatalf("redirects = %v", got)
	}
}

func TestProfileAndSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/profile":
			w.Write([]byte(`{"id":1,"email":"a@example.com","plan":{"id":2,"name":"Pro","price":9.99},
				"subscription":{"id":"sub_1","status":"active","cancelAtPeriodEnd":true},
				"state":"canceling","capabilities":["documents.generate"],"siteLimit":0}`))
		case "/user/subscription":
			w.Write([]byte(`{"subscription":null}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	p, err := c.Profile(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if p.Plan == nil || p.Plan.Name != "Pro" || p.Subscription == nil || !p.Can("documents.generate") {
		t.Fatalf("profile = %+v", p)
	}
	if got := NextBillingAction(p); got != ActionReactivate {
		t.Fatalf("action = %s, want reactivate", got)
	}

	sub, err := c.Subscription(context.Background(), "tok")
	if err != nil || sub != nil {
		t.Fatalf("subscription = %+v, %v", sub, err)
	}
}

func TestNextBillingAction(t *testing.T) {
	cases := []struct {
		name string
		p    Profile
		want BillingAction
	}{
		{"no plan", Profile{}, ActionSubscribe},
		{"free", Profile{Plan: &Plan{Name: "free"}}, ActionSubscribe},
		{"pro granted", Profile{Plan: &Plan{Name: "Pro"}}, ActionManage},
		{"pro active", Profile{Plan: &Plan{Name: "Pro"}, Subscription: &Subscription{Status: "active"}}, ActionManage},
		{"pro canceling", Profile{Plan: &Plan{Name: "Pro"}, Subscription: &Subscription{CancelAtPeriodEnd: true}}, ActionReactivate},
	}
	for _, tc := range cases {
		if got := NextBillingAction(tc.p); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}
