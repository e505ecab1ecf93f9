// Package catalog maps friendly model aliases to fully qualified,
// vendor-namespaced model identifiers.
//
// Two disjoint alias tables exist: the free tier and the paid tier. A name
// that is not an alias in any table is treated as an already-qualified model
// id and passed through unchanged.
package catalog

import (
	"fmt"
	"sort"
)

// Tier identifies an alias table.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// Priority controls which table is searched first by Catalog.Resolve.
type Priority string

const (
	FreeFirst Priority = "free"
	PaidFirst Priority = "paid"
)

// Table maps friendly alias → qualified model id.
type Table map[string]string

// Resolve returns the qualified id of the first table that contains name.
// If no table contains it, name is returned unchanged.
func Resolve(name string, tables ...Table) string {
	for _, t := range tables {
		if id, ok := t[name]; ok {
			return id
		}
	}
	return name
}

// Catalog is an immutable pair of alias tables. Build one with New or
// Default at startup and pass it by value to whoever resolves model names.
type Catalog struct {
	free     Table
	paid     Table
	priority Priority
}

// New copies the given tables into a Catalog. It fails when an alias appears
// in both tables or when priority is not one of FreeFirst / PaidFirst.
func New(free, paid Table, priority Priority) (Catalog, error) {
	switch priority {
	case FreeFirst, PaidFirst:
	case "":
		priority = FreeFirst
	default:
		return Catalog{}, fmt.Errorf("catalog: invalid priority %q; must be one of: free, paid", priority)
	}

	for alias := range free {
		if _, dup := paid[alias]; dup {
			return Catalog{}, fmt.Errorf("catalog: alias %q is defined in both free and paid tables", alias)
		}
	}

	return Catalog{
		free:     free.clone(),
		paid:     paid.clone(),
		priority: priority,
	}, nil
}

// Default returns the built-in catalog of popular gateway models.
func Default(priority Priority) (Catalog, error) {
	return New(FreeModels(), PaidModels(), priority)
}

// FreeModels returns a fresh copy of the built-in free-tier table.
func FreeModels() Table {
	return Table{
		"mistral_small":    "mistralai/mistral-small-3.1-24b-instruct:free",
		"deepseek_v3":      "deepseek/deepseek-v3-base:free",
		"llama_4_maverick": "meta-llama/llama-4-maverick:free",
		"hermes_mistral":   "nousresearch/deephermes-3-mistral-24b-preview:free",
		"gemini_2_flash":   "google/gemini-2.0-flash-exp:free",
	}
}

// PaidModels returns a fresh copy of the built-in paid-tier table.
func PaidModels() Table {
	return Table{
		"gpt_4_nano":            "openai/gpt-4.1-nano",
		"gpt_4_mini":            "openai/gpt-4.1-mini",
		"claude_haiku":          "anthropic/claude-3.5-haiku",
		"claude_sonnet":         "anthropic/claude-3.7-sonnet",
		"gemini_flash_thinking": "google/gemini-2.5-flash-preview:thinking",
	}
}

// Resolve maps name through both tables in the catalog's priority order.
func (c Catalog) Resolve(name string) string {
	if c.priority == PaidFirst {
		return Resolve(name, c.paid, c.free)
	}
	return Resolve(name, c.free, c.paid)
}

// Priority reports the configured search order.
func (c Catalog) Priority() Priority { return c.priority }

// Tier reports which table defines alias. ok is false for unknown names.
func (c Catalog) Tier(alias string) (tier Tier, ok bool) {
	if _, ok := c.free[alias]; ok {
		return TierFree, true
	}
	if _, ok := c.paid[alias]; ok {
		return TierPaid, true
	}
	return "", false
}

// Tables returns copies of both tables keyed by tier.
func (c Catalog) Tables() map[Tier]Table {
	return map[Tier]Table{
		TierFree: c.free.clone(),
		TierPaid: c.paid.clone(),
	}
}

// Names returns the aliases of one tier in lexical order.
func (c Catalog) Names(tier Tier) []string {
	var t Table
	switch tier {
	case TierFree:
		t = c.free
	case TierPaid:
		t = c.paid
	}
	names := make([]string, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (t Table) clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
