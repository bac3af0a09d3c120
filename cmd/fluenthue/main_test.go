package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, name := range []string{"HOST", "USER", "BRIDGE_ID", "DISCOVERY_URL", "TIMEOUT", "DEBUG"} {
		t.Setenv("FLUENTHUE_"+name, "")
		os.Unsetenv("FLUENTHUE_" + name)
	}
	return dir
}

func TestRunInvalidConfig(t *testing.T) {
	dir := isolate(t)

	if err := os.MkdirAll(filepath.Join(dir, "fluenthue"), 0755); err != nil {
		t.Fatal(err)
	}
	cfg := []byte("settings:\n  timeout: soon\n")
	if err := os.WriteFile(filepath.Join(dir, "fluenthue", "config.yml"), cfg, 0600); err != nil {
		t.Fatal(err)
	}

	if code := run(nil); code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
}

func TestRunDemoQuits(t *testing.T) {
	dir := isolate(t)

	done := make(chan int, 1)
	go func() {
		done <- run([]string{"--demo", "--debug"},
			tea.WithInput(strings.NewReader("q")),
			tea.WithOutput(&bytes.Buffer{}),
		)
	}()

	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("Expected exit code 0, got %d", code)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Program did not quit")
	}

	if _, err := os.Stat(filepath.Join(dir, "fluenthue-debug.log")); err != nil {
		t.Errorf("Debug log not written: %v", err)
	}
}
