package influx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ericogr/ads1115-pressure/pkg/config"
	"github.com/ericogr/ads1115-pressure/pkg/output"
)

type capture struct {
	mu     sync.Mutex
	bodies []string
	dbs    []string
	users  []string
	status int
}

func (c *capture) handler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/write" {
		http.NotFound(w, r)
		return
	}
	b, _ := io.ReadAll(r.Body)
	user, _, _ := r.BasicAuth()
	c.mu.Lock()
	c.bodies = append(c.bodies, string(b))
	c.dbs = append(c.dbs, r.URL.Query().Get("db"))
	c.users = append(c.users, user)
	status := c.status
	c.mu.Unlock()
	if status == 0 {
		status = http.StatusNoContent
	}
	w.WriteHeader(status)
}

func TestInfluxPublishLineProtocol(t *testing.T) {
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(c.handler))
	defer srv.Close()

	out, err := NewInflux(config.InfluxConfig{Addr: srv.URL, Username: "pi", Password: "secret"})
	if err != nil {
		t.Fatalf("NewInflux: %v", err)
	}
	ts := time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC)
	if err := out.Publish(output.Record{Raw: 291, PressureMV: 9.09375, Host: "raspberrypi", Time: ts}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(c.bodies) != 1 {
		t.Fatalf("writes: got %d want 1", len(c.bodies))
	}
	body := c.bodies[0]
	for _, want := range []string{"pressure_sensor,host=raspberrypi ", "raw_int=291i", "Pressure_mV=9.09375"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body %q missing %q", body, want)
		}
	}
	if c.dbs[0] != DefaultDatabase {
		t.Fatalf("db: got %q want %q", c.dbs[0], DefaultDatabase)
	}
	if c.users[0] != "pi" {
		t.Fatalf("user: got %q", c.users[0])
	}
}

func TestInfluxBatching(t *testing.T) {
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(c.handler))
	defer srv.Close()

	out, err := NewInflux(config.InfluxConfig{Addr: srv.URL, Database: "plant", BatchSize: 3})
	if err != nil {
		t.Fatalf("NewInflux: %v", err)
	}
	now := time.Now()
	for i := 0; i < 4; i++ {
		if err := out.Publish(output.Record{Raw: int16(i), Host: "h", Time: now.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if len(c.bodies) != 1 {
		t.Fatalf("writes before close: got %d want 1", len(c.bodies))
	}
	if n := strings.Count(strings.TrimSpace(c.bodies[0]), "\n") + 1; n != 3 {
		t.Fatalf("first batch lines: got %d want 3", n)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(c.bodies) != 2 || c.dbs[1] != "plant" {
		t.Fatalf("remaining batch not flushed: %v %v", c.bodies, c.dbs)
	}
}

func TestInfluxWriteError(t *testing.T) {
	c := &capture{status: http.StatusInternalServerError}
	srv := httptest.NewServer(http.HandlerFunc(c.handler))
	defer srv.Close()

	out, err := NewInflux(config.InfluxConfig{Addr: srv.URL})
	if err != nil {
		t.Fatalf("NewInflux: %v", err)
	}
	defer out.Close()
	if err := out.Publish(output.Record{Raw: 1, Host: "h", Time: time.Now()}); err == nil {
		t.Fatalf("expected write error")
	}
}

func TestNewInfluxBadAddr(t *testing.T) {
	if _, err := NewInflux(config.InfluxConfig{Addr: "://nope"}); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}
