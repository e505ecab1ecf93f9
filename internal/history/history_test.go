package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendAndSnapshot(t *testing.T) {
	h := New()
	if err := h.Append(Entry{Role: RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := h.Append(Entry{Role: RoleAssistant, Content: "hello"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	snap := h.Snapshot()
	if len(snap) != 2 || h.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d (Len=%d)", len(snap), h.Len())
	}
	if snap[0].Content != "hi" || snap[1].Role != RoleAssistant {
		t.Fatalf("unexpected order: %+v", snap)
	}

	snap[0].Content = "mutated"
	if h.Snapshot()[0].Content != "hi" {
		t.Fatal("Snapshot must return a copy")
	}
}

func TestAppend_InvalidRole(t *testing.T) {
	h := New()
	for _, role := range []string{"", "system", "tool", "User"} {
		err := h.Append(Entry{Role: role, Content: "x"})
		var ire *InvalidRoleError
		if !errors.As(err, &ire) {
			t.Fatalf("Append(role=%q): expected *InvalidRoleError, got %v", role, err)
		}
		if ire.Role != role {
			t.Errorf("InvalidRoleError.Role = %q, want %q", ire.Role, role)
		}
		if !errors.Is(err, ErrInvalidRole) {
			t.Errorf("errors.Is(err, ErrInvalidRole) = false for %q", role)
		}
	}
	if h.Len() != 0 {
		t.Fatalf("invalid entries must not be stored, got %d", h.Len())
	}
}

func TestClear(t *testing.T) {
	h := New()
	_ = h.Append(Entry{Role: RoleUser, Content: "a"})
	h.Clear()
	if len(h.Snapshot()) != 0 {
		t.Fatal("expected empty snapshot after Clear")
	}
}

func TestReplace_RoundTrip(t *testing.T) {
	h := New()
	_ = h.Append(Entry{Role: RoleUser, Content: "q"})
	_ = h.Append(Entry{Role: RoleAssistant, Content: "a"})

	before := h.Snapshot()
	if err := h.Replace(h.Snapshot()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	after := h.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("round trip changed length: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("entry %d: %+v != %+v", i, before[i], after[i])
		}
	}
}

func TestReplace_InvalidKeepsPrior(t *testing.T) {
	h := New()
	_ = h.Append(Entry{Role: RoleUser, Content: "keep me"})

	err := h.Replace([]Entry{
		{Role: RoleUser, Content: "new"},
		{Role: "system", Content: "bad"},
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	snap := h.Snapshot()
	if len(snap) != 1 || snap[0].Content != "keep me" {
		t.Fatalf("prior history must survive a failed Replace, got %+v", snap)
	}
}

func TestReplace_CopiesInput(t *testing.T) {
	h := New()
	in := []Entry{{Role: RoleUser, Content: "x"}}
	if err := h.Replace(in); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	in[0].Content = "changed"
	if h.Snapshot()[0].Content != "x" {
		t.Fatal("Replace must copy its input")
	}
}

func TestExportLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv.json")

	h := New()
	_ = h.Append(Entry{Role: RoleUser, Content: "Привет <b>&</b>"})
	_ = h.Append(Entry{Role: RoleAssistant, Content: "hi"})
	if err := h.Export(path); err != nil {
		t.Fatalf("Export: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "\n  {") {
		t.Errorf("expected indented JSON, got %s", raw)
	}
	if !strings.Contains(string(raw), "Привет <b>&</b>") {
		t.Errorf("expected unescaped content, got %s", raw)
	}

	var decoded []map[string]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("exported file is not a JSON list: %v", err)
	}
	if decoded[0]["role"] != "user" || decoded[1]["content"] != "hi" {
		t.Errorf("unexpected file shape: %v", decoded)
	}

	loaded := New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 2 || loaded.Snapshot()[0].Content != "Привет <b>&</b>" {
		t.Fatalf("unexpected loaded history: %+v", loaded.Snapshot())
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"bad role", `[{"role":"system","content":"x"}]`, ErrInvalidRole},
		{"not json", `{{{`, nil},
		{"not a list", `{"role":"user"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			h := New()
			_ = h.Append(Entry{Role: RoleUser, Content: "prior"})

			err := h.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if h.Len() != 1 {
				t.Fatalf("failed Load must keep prior history, got %d entries", h.Len())
			}
		})
	}

	if err := New().Load(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
