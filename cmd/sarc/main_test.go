package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRunMemoryBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SARC_BLOB_DRIVER", "memory")
	t.Setenv("SARC_BCRYPT_COST", "4")
	t.Setenv("SARC_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"user", "login", "-u", "admin", "-p", "admin123"}, &stdout, &stderr); code != 0 {
		t.Fatalf("login exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Administrador Principal") {
		t.Fatalf("unexpected login output %q", stdout.String())
	}
}

func TestRunReportsErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SARC_BLOB_DRIVER", "memory")
	t.Setenv("SARC_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"advisor", "list"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "not signed in") {
		t.Fatalf("expected session error, got %q", stderr.String())
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SARC_BLOB_DRIVER", "tape")

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"dashboard"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}
