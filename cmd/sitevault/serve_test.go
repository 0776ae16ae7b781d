package main

import (
	"strings"
	"testing"
)

// TestNewServeCmd tests the serve command creation.
func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "serve" {
			t.Errorf("expected use 'serve', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("documents the endpoints", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(cmd.Long, "/api/archives") {
			t.Error("expected long description to document /api/archives")
		}
		if !strings.Contains(cmd.Long, "/api/tasks") {
			t.Error("expected long description to document /api/tasks")
		}
	})

	t.Run("has addr flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("addr")
		if flag == nil {
			t.Fatal("expected addr flag")
		}
		if flag.Shorthand != "a" {
			t.Errorf("expected shorthand 'a', got %q", flag.Shorthand)
		}
		if flag.DefValue == "" {
			t.Error("expected non-empty default address")
		}
	})

	t.Run("has root flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("root")
		if flag == nil {
			t.Fatal("expected root flag")
		}
		if flag.Shorthand != "r" {
			t.Errorf("expected shorthand 'r', got %q", flag.Shorthand)
		}
	})

	t.Run("has config flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("config")
		if flag == nil {
			t.Fatal("expected config flag")
		}
		if flag.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", flag.Shorthand)
		}
	})

	t.Run("has no-fetch-log flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("no-fetch-log")
		if flag == nil {
			t.Fatal("expected no-fetch-log flag")
		}
	})

	t.Run("accepts no positional arguments", func(t *testing.T) {
		t.Parallel()
		if cmd.Args == nil {
			t.Error("expected Args validator")
		}
	})
}

// TestRunServeCmdMissingRoot tests that serve refuses to start without an
// archive root.
func TestRunServeCmdMissingRoot(t *testing.T) {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs([]string{"serve", "--root", "", "--no-fetch-log"})

	err := rootCmd.Execute()
	if err == nil {
		t.Error("expected error for empty archive root")
	}
	if !strings.Contains(err.Error(), "archive root") {
		t.Errorf("expected archive root error, got: %v", err)
	}
}
