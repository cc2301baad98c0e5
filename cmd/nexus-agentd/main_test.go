package main

import (
	"log/slog"
	"testing"
)

func TestBuildRootCmdRegistersSubcommands(t *testing.T) {
	root := buildRootCmd(slog.Default())
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	want := map[string]bool{"prompt": true, "bridge": true}
	for _, n := range names {
		delete(want, n)
	}
	if len(want) != 0 {
		t.Fatalf("missing subcommands: %v (got %v)", want, names)
	}
}

func TestDefaultAgentsIncludeMainAndResearcher(t *testing.T) {
	agents := newStaticAgentManager(defaultAgents()...)
	if _, ok := agents.Resolve("main"); !ok {
		t.Fatal("expected \"main\" agent to resolve")
	}
	if _, ok := agents.Resolve("researcher"); !ok {
		t.Fatal("expected \"researcher\" agent to resolve")
	}
	if _, ok := agents.Resolve("nope"); ok {
		t.Fatal("expected unknown agent to not resolve")
	}
}
