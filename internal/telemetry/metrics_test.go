package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vovakirdan/bubble-chamber/internal/chamber"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe(chamber.StepResult{
		Tick:      1,
		Splits:    []chamber.SplitEvent{{Parent: chamber.Charges{2, 0, 0}}},
		Created:   2,
		Expired:   1,
		Harvested: 1,
		Alive:     5,
	})
	m.Observe(chamber.StepResult{Tick: 2, Alive: 3})

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"ticks", m.ticks, 2},
		{"splits", m.splits, 1},
		{"children", m.children, 2},
		{"expired", m.expired, 1},
		{"harvested", m.harvested, 1},
		{"alive", m.alive, 3},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s = %v, expected %v", c.name, got, c.want)
		}
	}
}

func TestRunsAndSessions(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RunFinished("bubble")
	m.RunFinished("bubble")
	m.RunFinished("spiral")
	if got := testutil.ToFloat64(m.runs.WithLabelValues("bubble")); got != 2 {
		t.Errorf("bubble runs = %v, expected 2", got)
	}

	m.SessionStarted()
	m.SessionStarted()
	m.SessionEnded()
	if got := testutil.ToFloat64(m.sessions); got != 1 {
		t.Errorf("sessions = %v, expected 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Observe(chamber.StepResult{Alive: 1})
	m.RunFinished("bubble")
	m.SessionStarted()
	m.SessionEnded()
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Observe(chamber.StepResult{Alive: 4})

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{"chamber_ticks_total 1", "chamber_particles_alive 4"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
