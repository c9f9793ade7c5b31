package main

import "testing"

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	required := []string{"serve", "config"}
	for _, name := range required {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestConfigCmdIncludesValidate(t *testing.T) {
	cmd := buildConfigCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	if !names["validate"] {
		t.Fatal("expected validate subcommand to be registered")
	}
	if !names["schema"] {
		t.Fatal("expected schema subcommand to be registered")
	}
}
