package entities

import (
	"reflect"
	"sort"
	"strings"
)

// Reserved parameter names a hook may declare besides the target's own parameters.
const (
	// ResultSlot names the target's return slot.
	ResultSlot = "__result__"

	// InstanceSlot names the instance the target is called on.
	InstanceSlot = "__instance__"
)

// InternalName maps a hook-facing parameter name to the name used in the
// generated signature: reserved names lose their trailing underscores
// ("__result__" becomes "__result").
func InternalName(name string) string {
	if len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return name[:len(name)-2]
	}
	return name
}

// PatchKind is the role a hook plays around its target.
type PatchKind int

const (
	// PatchUnknown is the zero PatchKind.
	PatchUnknown PatchKind = iota
	// PatchPrefix runs before the target and may veto it by returning false.
	PatchPrefix
	// PatchPostfix runs after the target and returns nothing.
	PatchPostfix
	// PatchTranspiler rewrites the target's instruction sequence. Recognized, never supported.
	PatchTranspiler
)

var patchKindNames = map[PatchKind]string{
	PatchPrefix:     "prefix",
	PatchPostfix:    "postfix",
	PatchTranspiler: "transpiler",
}

// ParsePatchKind maps a core function's identifying name to its role.
func ParsePatchKind(name string) (PatchKind, bool) {
	for k, n := range patchKindNames {
		if n == name {
			return k, true
		}
	}
	return PatchUnknown, false
}

func (k PatchKind) String() string {
	if n, ok := patchKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ReturnType is the Go result type a hook of this kind exposes: bool for
// prefixes, nil (no result) otherwise.
func (k PatchKind) ReturnType() reflect.Type {
	if k == PatchPrefix {
		return reflect.TypeOf(false)
	}
	return nil
}

// RefSet is a sorted set of parameter names a hook may write back to.
type RefSet []string

// NewRefSet builds a RefSet from names, dropping repeats. Duplicate detection
// belongs to the declaration that produced the names.
func NewRefSet(names ...string) RefSet {
	seen := make(map[string]bool, len(names))
	out := make(RefSet, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is in the set.
func (r RefSet) Has(name string) bool {
	i := sort.SearchStrings(r, name)
	return i < len(r) && r[i] == name
}

// Names returns a copy of the names, sorted.
func (r RefSet) Names() []string {
	out := make([]string, len(r))
	copy(out, r)
	return out
}

// Tuple is a fixed-size sequence returned by a core function. A two-element
// Tuple is read as (primary value, assignment map).
type Tuple []any

// AffixResult is the two-slot protocol between a core function's wrapper and
// its trampoline.
type AffixResult struct {
	// Value is the primary return value.
	Value any

	// Assignments maps reference names to the values to write back. Nil means no writes.
	Assignments map[string]any
}

// Token is an opaque handle into an address store.
type Token uint64
