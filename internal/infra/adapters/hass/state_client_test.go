//go:build !integration

package hass_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"conversation-agent/internal/infra/adapters/hass"
)

func TestStateClient_States(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/states" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer llat" {
			t.Errorf("authorization = %q", got)
		}
		_, _ = w.Write([]byte(`[
			{"entity_id":"light.kitchen","state":"on","attributes":{}},
			{"entity_id":"switch.fan","state":"off"},
			{"entity_id":"sensor.temp","state":"21.5"}
		]`))
	}))
	defer srv.Close()

	c, err := hass.NewStateClient(srv.URL+"/", "llat")
	if err != nil {
		t.Fatalf("NewStateClient: %v", err)
	}
	states, err := c.States(context.Background())
	if err != nil {
		t.Fatalf("States: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("got %d states", len(states))
	}
	if states[0].Domain != "light" || states[0].State != "on" {
		t.Fatalf("unexpected first state %+v", states[0])
	}
	if states[2].Domain != "sensor" {
		t.Fatalf("unexpected domain %q", states[2].Domain)
	}
}

func TestStateClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := hass.NewStateClient(srv.URL, "bad")
	if _, err := c.States(context.Background()); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestStaticSource(t *testing.T) {
	s := hass.NewStaticSource(map[string]string{"light.a": "on", "zone.home": "0"})
	states, err := s.States(context.Background())
	if err != nil || len(states) != 2 {
		t.Fatalf("states=%v err=%v", states, err)
	}
}
