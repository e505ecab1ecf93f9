package cache

import (
	"testing"
)

func TestExclusionList_NilSafe(t *testing.T) {
	var el *ExclusionList
	if el.Matches("openai/gpt-4.1-mini") || el.MatchesAny("a", "b") {
		t.Fatal("nil ExclusionList must never match")
	}
	if el.Len() != 0 {
		t.Fatal("nil ExclusionList Len must be 0")
	}
}

func TestExclusionList_ExactMatch(t *testing.T) {
	el, err := NewExclusionList([]string{"openai/gpt-4.1-mini", "claude_sonnet"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		model string
		want  bool
	}{
		{"openai/gpt-4.1-mini", true},
		{"claude_sonnet", true},
		{"openai/gpt-4.1-nano", false},
		{"OPENAI/GPT-4.1-MINI", false}, // case-sensitive
		{"openai/gpt-4.1", false},      // prefix only
	}
	for _, c := range cases {
		if got := el.Matches(c.model); got != c.want {
			t.Errorf("Matches(%q) = %v, want %v", c.model, got, c.want)
		}
	}
}

func TestExclusionList_RegexMatch(t *testing.T) {
	el, err := NewExclusionList(nil, []string{`:free$`, `^anthropic/`})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		model string
		want  bool
	}{
		{"meta-llama/llama-4-maverick:free", true},
		{"deepseek/deepseek-v3-base:free", true},
		{"anthropic/claude-3.7-sonnet", true},
		{"google/gemini-2.5-flash-preview:thinking", false},
		{"openai/gpt-4.1-nano", false},
	}
	for _, c := range cases {
		if got := el.Matches(c.model); got != c.want {
			t.Errorf("Matches(%q) = %v, want %v", c.model, got, c.want)
		}
	}
}

func TestExclusionList_MatchesAny(t *testing.T) {
	el, err := NewExclusionList([]string{"claude_sonnet"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !el.MatchesAny("claude_sonnet", "anthropic/claude-3.7-sonnet") {
		t.Error("alias rule should exclude the resolved request")
	}
	if el.MatchesAny("claude_haiku", "anthropic/claude-3.5-haiku") {
		t.Error("unrelated model must not match")
	}
	if el.MatchesAny() {
		t.Error("no names must not match")
	}
}

func TestExclusionList_InvalidPattern(t *testing.T) {
	_, err := NewExclusionList(nil, []string{`[invalid(`})
	if err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestExclusionList_EmptyStringsSkipped(t *testing.T) {
	el, err := NewExclusionList([]string{"", "gpt-4o-mini", ""}, []string{"", `^openai/`})
	if err != nil {
		t.Fatal(err)
	}
	if !el.Matches("gpt-4o-mini") {
		t.Error("should match gpt-4o-mini")
	}
	if !el.Matches("openai/gpt-4o-mini") {
		t.Error("should match openai/ via regex")
	}
	if el.Len() != 2 {
		t.Errorf("Len = %d, want 2", el.Len())
	}
}
