package main

import (
	"github.com/skybi/netaccess/internal/config"
	"github.com/skybi/netaccess/internal/netaccess"
	"github.com/skybi/netaccess/internal/netaccess/netaccesstest"
	"net/http"
	"testing"
	"time"
)

func TestApplyFlags(t *testing.T) {
	cfg := &config.Config{
		BaseURL:       netaccess.DefaultBaseURL,
		Duration:      2,
		ApprovePolicy: "optimistic",
		Timeout:       30 * time.Second,
	}
	opts, _, err := applyFlags(cfg, []string{"-d", "1", "--strict", "--timeout", "5s", "--retries", "2", "--show-machines"})
	if err != nil {
		t.Fatalf("apply flags: %v", err)
	}
	if cfg.Duration != 1 || cfg.ApprovePolicy != "strict" || cfg.Timeout != 5*time.Second || cfg.Retries != 2 {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if !opts.showMachines || opts.debug {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if cfg.BaseURL != netaccess.DefaultBaseURL {
		t.Fatalf("unset flag overrode the base url: %s", cfg.BaseURL)
	}
}

func TestApplyFlagsRejectsArguments(t *testing.T) {
	if _, _, err := applyFlags(&config.Config{}, []string{"user", "password"}); err == nil {
		t.Fatal("expected positional arguments to be rejected")
	}
}

func setEnv(t *testing.T, portal *netaccesstest.Portal, password string) {
	t.Helper()
	t.Setenv("NA_ENVIRONMENT", "prod")
	t.Setenv("NA_USERNAME", "ab12c345")
	t.Setenv("NA_PASSWORD", password)
	t.Setenv("NA_PASSWORD_FILE", "")
	t.Setenv("NA_BASE_URL", portal.URL())
	t.Setenv("NA_DURATION", "2")
	t.Setenv("NA_APPROVE_POLICY", "optimistic")
	t.Setenv("NA_RETRIES", "0")
}

func TestRun(t *testing.T) {
	portal := netaccesstest.New("ab12c345", "hunter2")
	defer portal.Close()
	setEnv(t, portal, "hunter2")

	if code := run([]string{"--duration", "1", "--show-machines"}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	approvals := portal.Approvals()
	if len(approvals) != 1 || approvals[0].Duration != "1" {
		t.Fatalf("unexpected approvals: %+v", approvals)
	}
}

func TestRunLoginFailed(t *testing.T) {
	portal := netaccesstest.New("ab12c345", "hunter2")
	defer portal.Close()
	setEnv(t, portal, "wrong")

	if code := run(nil); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if n := len(portal.RequestsTo(http.MethodPost, netaccess.PathApprove)); n != 0 {
		t.Fatalf("expected no approval, got %d", n)
	}
}

func TestRunInvalidDuration(t *testing.T) {
	portal := netaccesstest.New("ab12c345", "hunter2")
	defer portal.Close()
	setEnv(t, portal, "hunter2")

	if code := run([]string{"--duration", "3"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if n := len(portal.Requests()); n != 0 {
		t.Fatalf("expected no portal request, got %d", n)
	}
}

func TestRunHelpWithMalformedEnvironment(t *testing.T) {
	t.Setenv("NA_DURATION", "two")
	t.Setenv("NA_TIMEOUT", "soon")

	if code := run([]string{"--help"}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if code := run(nil); code != 2 {
		t.Fatalf("expected exit code 2 for the malformed environment, got %d", code)
	}
}

func TestRunUnknownPolicy(t *testing.T) {
	portal := netaccesstest.New("ab12c345", "hunter2")
	defer portal.Close()
	setEnv(t, portal, "hunter2")
	t.Setenv("NA_APPROVE_POLICY", "lenient")

	if code := run(nil); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if n := len(portal.Requests()); n != 0 {
		t.Fatalf("expected no portal request, got %d", n)
	}
}

func TestHelpRequested(t *testing.T) {
	if !helpRequested([]string{"-d", "1", "-h"}) || !helpRequested([]string{"--help"}) {
		t.Fatal("expected help to be detected")
	}
	if helpRequested([]string{"--", "--help"}) || helpRequested(nil) {
		t.Fatal("unexpected help detection")
	}
}
