package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STOREFRONT_STORAGE_DRIVER", "fs")
	t.Setenv("STOREFRONT_STORAGE_FS_ROOT", filepath.Join(t.TempDir(), "kv"))
	t.Setenv("STOREFRONT_ADMIN_PERSIST", "true")
	t.Setenv("STOREFRONT_LOG_LEVEL", "error")
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := cli(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCartCommands(t *testing.T) {
	setupEnv(t)
	if code, _, errOut := runCLI(t, "cart", "add", "-id", "p1", "-title", "Coaster", "-price", "25"); code != 0 {
		t.Fatalf("add failed: %d %s", code, errOut)
	}
	if code, _, _ := runCLI(t, "cart", "add", "-id", "p1", "-price", "25", "-qty", "2"); code != 0 {
		t.Fatalf("second add failed")
	}
	code, out, _ := runCLI(t, "cart", "show")
	if code != 0 {
		t.Fatalf("show failed")
	}
	var snap struct {
		Lines         []map[string]any `json:"lines"`
		TotalQuantity int              `json:"totalQuantity"`
		TotalPrice    float64          `json:"totalPrice"`
	}
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, out)
	}
	if len(snap.Lines) != 1 || snap.TotalQuantity != 3 || snap.TotalPrice != 75 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if code, _, _ := runCLI(t, "cart", "set", "-id", "p1", "-qty", "0"); code != 0 {
		t.Fatalf("set failed")
	}
	_, out, _ = runCLI(t, "cart", "show")
	if !strings.Contains(out, `"totalQuantity": 0`) {
		t.Fatalf("expected empty cart after set 0, got %s", out)
	}
	for _, args := range [][]string{{"cart", "remove", "-id", "p1"}, {"cart", "clear"}} {
		if code, _, _ := runCLI(t, args...); code != 0 {
			t.Fatalf("%v failed", args)
		}
	}
}

func TestCartRejectsInvalidQuantity(t *testing.T) {
	setupEnv(t)
	code, out, errOut := runCLI(t, "cart", "add", "-id", "p1", "-qty", "0")
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(out, "invalid input") || !strings.Contains(errOut, "invalid input") {
		t.Fatalf("expected rejection reported, got %s / %s", out, errOut)
	}
}

func TestAdminCommands(t *testing.T) {
	setupEnv(t)
	code, out, errOut := runCLI(t, "admin", "add", "-collection", "interiors", "-name", "Ana", "-email", "ana@example.com")
	if code != 0 {
		t.Fatalf("add failed: %s", errOut)
	}
	var added struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &added); err != nil || !strings.HasPrefix(added.Data.ID, "INT-") || added.Data.Status != "new" {
		t.Fatalf("unexpected add output %s (%v)", out, err)
	}
	id := added.Data.ID

	if code, out, _ := runCLI(t, "admin", "status", "-collection", "interiors", "-id", id, "-status", "queued"); code != 0 || !strings.Contains(out, `"queued"`) {
		t.Fatalf("status failed: %s", out)
	}
	if code, out, _ := runCLI(t, "admin", "archive", "-collection", "interiors", "-id", id); code != 0 || !strings.Contains(out, `"isArchived": true`) {
		t.Fatalf("archive failed: %s", out)
	}
	_, out, _ = runCLI(t, "admin", "list", "-collection", "interiors", "-archived", "active")
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected no active records, got %s", out)
	}
	_, out, _ = runCLI(t, "admin", "list", "-collection", "interiors", "-status", "queued")
	if !strings.Contains(out, id) {
		t.Fatalf("expected queued record listed, got %s", out)
	}
	if code, out, _ := runCLI(t, "admin", "delete", "-collection", "interiors", "-id", id); code != 0 || !strings.Contains(out, `"changed": true`) {
		t.Fatalf("delete failed: %s", out)
	}
	if code, _, _ := runCLI(t, "admin", "add", "-collection", "stolar", "-name", "Jon", "-crafts", "joinery, carving"); code != 0 {
		t.Fatalf("stolar add failed")
	}
	if code, _, _ := runCLI(t, "admin", "add", "-collection", "web", "-name", "Acme"); code != 0 {
		t.Fatalf("web add failed")
	}
}

func TestUsageErrors(t *testing.T) {
	setupEnv(t)
	cases := [][]string{
		{},
		{"bogus"},
		{"cart"},
		{"cart", "explode"},
		{"admin"},
		{"admin", "list", "-collection", "orders"},
		{"admin", "status", "-id", "INT-1", "-status", "paused"},
		{"admin", "list", "-archived", "deleted"},
		{"-nope"},
	}
	for _, args := range cases {
		if code, _, _ := runCLI(t, args...); code != 2 {
			t.Fatalf("%v: expected exit 2, got %d", args, code)
		}
	}
}

func TestConfigErrors(t *testing.T) {
	setupEnv(t)
	if code, _, _ := runCLI(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"), "cart", "show"); code != 1 {
		t.Fatalf("expected exit 1 for missing config")
	}
	t.Setenv("STOREFRONT_STORAGE_DRIVER", "redis")
	if code, _, _ := runCLI(t, "cart", "show"); code != 1 {
		t.Fatalf("expected exit 1 for invalid driver")
	}
}

func TestMetricsCommand(t *testing.T) {
	setupEnv(t)
	code, out, _ := runCLI(t, "metrics")
	if code != 0 || !strings.Contains(out, "go_goroutines") {
		t.Fatalf("expected exposition output, got %d %s", code, out)
	}
}

func TestMainUsesExitFunc(t *testing.T) {
	setupEnv(t)
	var codes []int
	old := exitFunc
	exitFunc = func(code int) { codes = append(codes, code) }
	defer func() { exitFunc = old }()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"storectl", "cart", "show"}
	main()
	os.Args = []string{"storectl", "bogus"}
	main()
	if len(codes) != 2 || codes[0] != 0 || codes[1] != 2 {
		t.Fatalf("unexpected exit codes %v", codes)
	}
}
