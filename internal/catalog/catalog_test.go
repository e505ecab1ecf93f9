package catalog

import (
	"testing"
)

func TestResolve_KnownAliases(t *testing.T) {
	free, paid := FreeModels(), PaidModels()

	tests := []struct {
		name     string
		tables   []Table
		expected string
	}{
		{"claude_sonnet", []Table{paid}, "anthropic/claude-3.7-sonnet"},
		{"mistral_small", []Table{free}, "mistralai/mistral-small-3.1-24b-instruct:free"},
		{"mistral_small", []Table{free, paid}, "mistralai/mistral-small-3.1-24b-instruct:free"},
		{"gpt_4_mini", []Table{free, paid}, "openai/gpt-4.1-mini"},
		{"gemini_flash_thinking", []Table{paid, free}, "google/gemini-2.5-flash-preview:thinking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.name, tt.tables...)
			if got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestResolve_EveryAliasMapsToItsTable(t *testing.T) {
	for _, table := range []Table{FreeModels(), PaidModels()} {
		for alias, id := range table {
			if got := Resolve(alias, table); got != id {
				t.Errorf("Resolve(%q) = %q, want %q", alias, got, id)
			}
		}
	}
}

func TestResolve_UnknownPassesThrough(t *testing.T) {
	for _, name := range []string{"gpt-9-ultra", "", "openai/gpt-4o", "MISTRAL_SMALL"} {
		if got := Resolve(name, FreeModels(), PaidModels()); got != name {
			t.Errorf("Resolve(%q) = %q, want identity", name, got)
		}
	}
}

func TestResolve_NoTables(t *testing.T) {
	if got := Resolve("claude_sonnet"); got != "claude_sonnet" {
		t.Errorf("Resolve without tables = %q, want identity", got)
	}
}

func TestResolve_FirstTableWins(t *testing.T) {
	a := Table{"fast": "vendor-a/fast"}
	b := Table{"fast": "vendor-b/fast"}

	if got := Resolve("fast", a, b); got != "vendor-a/fast" {
		t.Errorf("got %q, want vendor-a/fast", got)
	}
	if got := Resolve("fast", b, a); got != "vendor-b/fast" {
		t.Errorf("got %q, want vendor-b/fast", got)
	}
}

func TestNew_RejectsOverlappingTables(t *testing.T) {
	_, err := New(Table{"x": "a/x"}, Table{"x": "b/x"}, FreeFirst)
	if err == nil {
		t.Fatal("expected error for alias present in both tables")
	}
}

func TestNew_RejectsInvalidPriority(t *testing.T) {
	if _, err := New(nil, nil, "cheapest"); err == nil {
		t.Fatal("expected error for invalid priority")
	}
}

func TestNew_EmptyPriorityDefaultsToFree(t *testing.T) {
	c, err := New(nil, nil, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Priority() != FreeFirst {
		t.Errorf("priority = %q, want %q", c.Priority(), FreeFirst)
	}
}

func TestDefault_TablesAreDisjoint(t *testing.T) {
	free, paid := FreeModels(), PaidModels()
	for alias := range free {
		if _, ok := paid[alias]; ok {
			t.Errorf("alias %q appears in both tiers", alias)
		}
	}
}

func TestCatalog_ResolveAndTier(t *testing.T) {
	c, err := Default(FreeFirst)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	if got := c.Resolve("claude_sonnet"); got != "anthropic/claude-3.7-sonnet" {
		t.Errorf("Resolve(claude_sonnet) = %q", got)
	}
	if got := c.Resolve("gpt-9-ultra"); got != "gpt-9-ultra" {
		t.Errorf("Resolve(gpt-9-ultra) = %q, want pass-through", got)
	}

	if tier, ok := c.Tier("deepseek_v3"); !ok || tier != TierFree {
		t.Errorf("Tier(deepseek_v3) = %q, %v", tier, ok)
	}
	if tier, ok := c.Tier("claude_haiku"); !ok || tier != TierPaid {
		t.Errorf("Tier(claude_haiku) = %q, %v", tier, ok)
	}
	if _, ok := c.Tier("unknown"); ok {
		t.Error("Tier(unknown) should report ok=false")
	}
}

func TestCatalog_IsImmutable(t *testing.T) {
	free := Table{"fast": "a/fast"}
	c, err := New(free, Table{}, FreeFirst)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Mutating the source table must not leak into the catalog.
	free["fast"] = "mutated"
	if got := c.Resolve("fast"); got != "a/fast" {
		t.Errorf("Resolve after source mutation = %q, want a/fast", got)
	}

	// Mutating a returned copy must not leak either.
	tables := c.Tables()
	tables[TierFree]["fast"] = "mutated"
	if got := c.Resolve("fast"); got != "a/fast" {
		t.Errorf("Resolve after copy mutation = %q, want a/fast", got)
	}
}

func TestCatalog_Names(t *testing.T) {
	c, _ := Default(FreeFirst)

	names := c.Names(TierPaid)
	want := []string{"claude_haiku", "claude_sonnet", "gemini_flash_thinking", "gpt_4_mini", "gpt_4_nano"}
	if len(names) != len(want) {
		t.Fatalf("Names(paid) = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names(paid)[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if n := c.Names("platinum"); len(n) != 0 {
		t.Errorf("Names(unknown tier) = %v, want empty", n)
	}
}
