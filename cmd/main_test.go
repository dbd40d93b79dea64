package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRolesCommand(t *testing.T) {
	root := rootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"roles"})
	if err := root.Execute(); err != nil {
		t.Fatalf("roles: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "capability table v1") {
		t.Fatalf("missing version header: %q", got)
	}
	for _, line := range strings.Split(strings.TrimSpace(got), "\n")[1:] {
		if strings.HasPrefix(line, "analyst") && strings.Contains(line, "delete") {
			t.Fatalf("analyst must not have delete: %q", line)
		}
	}
	if !strings.Contains(got, "admin") || !strings.Contains(got, "analyst") {
		t.Fatalf("roles missing: %q", got)
	}
}
