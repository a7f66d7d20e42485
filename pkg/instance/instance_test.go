package instance

import (
	"os"
	"testing"
)

func TestIDPrefersExplicitValue(t *testing.T) {
	t.Setenv(EnvInstanceID, "publisher-3")
	t.Setenv("DYNO", "web.1")
	if got := ID("outbox-publisher"); got != "publisher-3" {
		t.Fatalf("expected explicit id, got %q", got)
	}
}

func TestIDFallsBackToDyno(t *testing.T) {
	t.Setenv(EnvInstanceID, " ")
	t.Setenv("DYNO", "worker.2")
	if got := ID("cron-worker"); got != "worker.2" {
		t.Fatalf("expected dyno name, got %q", got)
	}
}

func TestIDFallsBackToHostname(t *testing.T) {
	t.Setenv(EnvInstanceID, "")
	t.Setenv("DYNO", "")
	host, err := os.Hostname()
	if err != nil || host == "" {
		t.Skip("hostname unavailable")
	}
	if got := ID("api"); got != host {
		t.Fatalf("expected hostname %q, got %q", host, got)
	}
}
