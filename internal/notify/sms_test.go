package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSMSGateway_OK(t *testing.T) {
	var got smsPayload
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(200)
	}))
	defer ts.Close()

	g := NewSMSGateway(ts.URL, "key")
	if g == nil {
		t.Fatal("expected gateway client")
	}
	if err := g.Send(context.Background(), "+15005550006", "+15552226666", "hello"); err != nil {
		t.Fatalf("send err: %v", err)
	}
	if got.To != "+15005550006" || got.From != "+15552226666" || got.Body != "hello" {
		t.Fatalf("payload not as expected: %+v", got)
	}
}

func TestSMSGateway_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	g := NewSMSGateway(ts.URL, "")
	if err := g.Send(context.Background(), "x", "y", "z"); err == nil {
		t.Fatal("expected error on non-2xx")
	}
}

func TestNewSMSGateway_EmptyURLDisabled(t *testing.T) {
	if g := NewSMSGateway("", ""); g != nil {
		t.Fatal("expected nil gateway for empty URL")
	}
}

// flakyNotifier fails for one recipient only.
type flakyNotifier struct {
	fail string
	sent []string
}

func (f *flakyNotifier) Send(ctx context.Context, to, from, body string) error {
	if to == f.fail {
		return errors.New("carrier rejected")
	}
	f.sent = append(f.sent, to)
	return nil
}

func TestFanout_ContinuesPastFailures(t *testing.T) {
	n := &flakyNotifier{fail: "+2"}
	err := Fanout(context.Background(), n, []string{"+1", "+2", "+3", ""}, "+0", "msg")
	if err == nil {
		t.Fatal("expected combined error")
	}
	if len(n.sent) != 2 || n.sent[0] != "+1" || n.sent[1] != "+3" {
		t.Fatalf("expected delivery to the other recipients, got %v", n.sent)
	}
}
