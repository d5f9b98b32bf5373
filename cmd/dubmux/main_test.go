package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	want := map[string]bool{"probe": false, "merge": false, "history": false, "config": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestElevatedFlagIsAccepted(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--elevated"})
	cmd.SetOut(new(bytes.Buffer))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("root with --elevated: %v", err)
	}
}

func TestLanguageName(t *testing.T) {
	cases := map[string]string{
		"por":     "Portuguese",
		"eng":     "English",
		"unknown": "",
		"!!!":     "",
	}
	for tag, want := range cases {
		if got := languageName(tag); got != want {
			t.Fatalf("languageName(%q) = %q, want %q", tag, got, want)
		}
	}
}

func TestRenderPlainFallsBackToTabSeparated(t *testing.T) {
	got := renderPlain([]string{"A", "B"}, [][]string{{"1", "2"}, {"3", "4"}})
	want := "A\tB\n1\t2\n3\t4"
	if got != want {
		t.Fatalf("renderPlain mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"config", "init", "--path", target})
	cmd.SetOut(new(bytes.Buffer))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	cmd = newRootCommand()
	cmd.SetArgs([]string{"config", "init", "--path", target})
	cmd.SetOut(new(bytes.Buffer))
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}

func TestMergeRequiresSelections(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCommand()
	cmd.SetArgs([]string{"merge"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when required flags are missing")
	}
}
