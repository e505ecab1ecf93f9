// Package history keeps the ordered conversation log of one chat session.
//
// A History is owned by a single session and is not safe for concurrent use.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Roles accepted in a conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrInvalidRole matches every *InvalidRoleError via errors.Is.
var ErrInvalidRole = errors.New("invalid history role")

// InvalidRoleError reports an entry whose role is neither user nor assistant.
type InvalidRoleError struct {
	Role string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("history: invalid role %q (want %q or %q)", e.Role, RoleUser, RoleAssistant)
}

func (e *InvalidRoleError) Unwrap() error { return ErrInvalidRole }

// Entry is one turn of the conversation.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is an append-only list of entries with whole-list replacement.
// The zero value is an empty history ready for use.
type History struct {
	entries []Entry
}

// New returns an empty History.
func New() *History { return &History{} }

// Append adds e at the end.
func (h *History) Append(e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	h.entries = append(h.entries, e)
	return nil
}

// Clear drops every entry.
func (h *History) Clear() { h.entries = nil }

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Snapshot returns a copy of the entries. Mutating it does not affect h.
func (h *History) Snapshot() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Replace swaps the whole history for a copy of entries. If any entry is
// invalid the prior history is left untouched.
func (h *History) Replace(entries []Entry) error {
	for _, e := range entries {
		if err := validate(e); err != nil {
			return err
		}
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	h.entries = cp
	return nil
}

// Export writes the history to path as an indented JSON list.
func (h *History) Export(path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h.Snapshot()); err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("history: export: %w", err)
	}
	return nil
}

// Load reads a JSON list written by Export and replaces the history with it.
func (h *History) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("history: load: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("history: decode %s: %w", path, err)
	}
	return h.Replace(entries)
}

func validate(e Entry) error {
	switch e.Role {
	case RoleUser, RoleAssistant:
		return nil
	default:
		return &InvalidRoleError{Role: e.Role}
	}
}
