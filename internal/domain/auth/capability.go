package auth

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
)

type Capability string

const (
	CapCreate  Capability = "create"
	CapRead    Capability = "read"
	CapUpdate  Capability = "update"
	CapDelete  Capability = "delete"
	CapExport  Capability = "export"
	CapAnalyze Capability = "analyze"
)

var allCapabilities = map[Capability]struct{}{
	CapCreate: {}, CapRead: {}, CapUpdate: {}, CapDelete: {}, CapExport: {}, CapAnalyze: {},
}

//go:embed roles.yaml
var rolesYAML []byte

type capabilityTable struct {
	version int
	roles   map[Role]map[Capability]struct{}
}

// table is built once at init and never mutated afterwards.
var table = mustLoadTable(rolesYAML)

type rolesDoc struct {
	Version int                 `yaml:"version"`
	Roles   map[string][]string `yaml:"roles"`
}

func loadTable(raw []byte) (*capabilityTable, error) {
	var doc rolesDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse roles table: %w", err)
	}
	if doc.Version <= 0 {
		return nil, fmt.Errorf("roles table: missing version")
	}
	t := &capabilityTable{version: doc.Version, roles: make(map[Role]map[Capability]struct{}, len(doc.Roles))}
	for roleName, caps := range doc.Roles {
		role := Role(strings.ToLower(strings.TrimSpace(roleName)))
		if role != RoleAdmin && role != RoleAnalyst {
			return nil, fmt.Errorf("roles table: unknown role %q", roleName)
		}
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			capability := Capability(strings.ToLower(strings.TrimSpace(c)))
			if _, ok := allCapabilities[capability]; !ok {
				return nil, fmt.Errorf("roles table: role %q has unknown capability %q", roleName, c)
			}
			set[capability] = struct{}{}
		}
		t.roles[role] = set
	}
	return t, nil
}

func mustLoadTable(raw []byte) *capabilityTable {
	t, err := loadTable(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// HasCapability reports whether role grants capability. Unknown roles grant nothing.
func HasCapability(role Role, capability Capability) bool {
	caps, ok := table.roles[role]
	if !ok {
		return false
	}
	_, ok = caps[capability]
	return ok
}

// CapabilitiesOf returns a sorted copy of the role's capabilities.
func CapabilitiesOf(role Role) []Capability {
	caps := table.roles[role]
	out := make([]Capability, 0, len(caps))
	for c := range caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Roles lists known roles in stable order.
func Roles() []Role {
	out := make([]Role, 0, len(table.roles))
	for r := range table.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TableVersion() int { return table.version }

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := table.roles[r]
	return r, ok
}

func ParseCapability(s string) (Capability, bool) {
	c := Capability(strings.ToLower(strings.TrimSpace(s)))
	_, ok := allCapabilities[c]
	return c, ok
}
