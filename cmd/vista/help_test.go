package main

import (
	"strings"
	"testing"
)

func TestGroupCommands(t *testing.T) {
	groupCommands(rootCmd)
	groupCommands(rootCmd)

	for _, g := range helpGroups {
		if !rootCmd.ContainsGroup(g.ID) {
			t.Errorf("root is missing group %q", g.ID)
		}
	}
	if n := len(rootCmd.Groups()); n != len(helpGroups) {
		t.Errorf("len(Groups()) = %d, want %d", n, len(helpGroups))
	}

	for _, sub := range rootCmd.Commands() {
		if want, ok := commandGroup[sub.Name()]; ok && sub.GroupID != want {
			t.Errorf("%s.GroupID = %q, want %q", sub.Name(), sub.GroupID, want)
		}
	}
}

func TestHelp_GroupedWithEnvironment(t *testing.T) {
	testEnv(t)
	initHelp(rootCmd)

	out := mustRun(t, "--help")

	for _, want := range []string{"Default Dataset:", "Datasets & Workspaces:", "Backup:", "Tools:", "Environment:"} {
		if !strings.Contains(out, want) {
			t.Errorf("--help output should contain %q\n%s", want, out)
		}
	}
	for _, env := range envHelp {
		if !strings.Contains(out, env.Name) {
			t.Errorf("--help output should list %s", env.Name)
		}
	}

	ensure := strings.Index(out, "ensure")
	backup := strings.Index(out, "Backup:")
	if ensure < 0 || backup < 0 || ensure > backup {
		t.Errorf("ensure should be listed before the Backup group\n%s", out)
	}
}

func TestHelp_SubcommandOmitsEnvironment(t *testing.T) {
	testEnv(t)
	initHelp(rootCmd)

	out := mustRun(t, "dataset", "--help")

	if strings.Contains(out, "Environment:") {
		t.Errorf("subcommand help should not repeat the environment section\n%s", out)
	}
	if !strings.Contains(out, "list") {
		t.Errorf("dataset help should list its subcommands\n%s", out)
	}
}
