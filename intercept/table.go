package intercept

import (
	stdErrors "errors"
	"sync"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/host"
)

type installedHook struct {
	run   HookFunc
	owner string
	name  string
	kind  entities.PatchKind
}

type ownerPatch struct {
	owner   string
	prefix  *installedHook
	postfix *installedHook
}

// PatchTable tracks the hooks installed on each method and keeps each method's
// dispatcher in sync with them.
type PatchTable struct {
	mu      sync.Mutex
	patches map[*host.Method][]ownerPatch
}

var defaultTable = NewPatchTable()

// DefaultTable returns the process-wide patch table used by instances created
// without WithTable.
func DefaultTable() *PatchTable {
	return defaultTable
}

// NewPatchTable creates an empty table.
func NewPatchTable() *PatchTable {
	return &PatchTable{patches: make(map[*host.Method][]ownerPatch)}
}

func (t *PatchTable) add(m *host.Method, owner string, prefix, postfix *installedHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.patches[m] = append(t.patches[m], ownerPatch{owner: owner, prefix: prefix, postfix: postfix})
	t.rebuild(m)
}

func (t *PatchTable) remove(m *host.Method, owner string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.patches[m]
	kept := make([]ownerPatch, 0, len(cur))
	for _, p := range cur {
		if p.owner != owner {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(cur) {
		return false
	}
	if len(kept) == 0 {
		delete(t.patches, m)
	} else {
		t.patches[m] = kept
	}
	t.rebuild(m)
	return true
}

// Records returns the patches installed on m in installation order.
func (t *PatchTable) Records(m *host.Method) []entities.PatchRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.patches[m]
	out := make([]entities.PatchRecord, 0, len(cur))
	for _, p := range cur {
		r := entities.PatchRecord{Owner: p.owner, Target: m.FullName()}
		if p.prefix != nil {
			r.Prefix = p.prefix.name
		}
		if p.postfix != nil {
			r.Postfix = p.postfix.name
		}
		out = append(out, r)
	}
	return out
}

// rebuild must be called with t.mu held.
func (t *PatchTable) rebuild(m *host.Method) {
	cur := t.patches[m]
	if len(cur) == 0 {
		m.SetDispatcher(nil)
		return
	}
	d := &dispatcher{}
	for _, p := range cur {
		if p.prefix != nil {
			d.prefixes = append(d.prefixes, p.prefix)
		}
		if p.postfix != nil {
			d.postfixes = append(d.postfixes, p.postfix)
		}
	}
	m.SetDispatcher(d)
}

// dispatcher is an immutable snapshot of a method's hooks.
type dispatcher struct {
	prefixes  []*installedHook
	postfixes []*installedHook
}

// Dispatch implements host.Dispatcher.
func (d *dispatcher) Dispatch(m *host.Method, call *host.Call) error {
	runOriginal := true
	for _, h := range d.prefixes {
		ok, err := d.run(h, m, call)
		if err != nil {
			return err
		}
		if !ok {
			runOriginal = false
		}
	}
	if runOriginal {
		m.Invoke(call)
	}
	for _, h := range d.postfixes {
		if _, err := d.run(h, m, call); err != nil {
			return err
		}
	}
	return nil
}

func (d *dispatcher) run(h *installedHook, m *host.Method, call *host.Call) (bool, error) {
	inv := &Invocation{Method: m, Call: call, Owner: h.owner, Hook: h.name, Kind: h.kind}
	ok, err := h.run(inv)
	if err == nil {
		return ok, nil
	}
	var he *errors.HookError
	if stdErrors.As(err, &he) {
		return false, err
	}
	return false, &errors.HookError{Err: err, Owner: h.owner, Target: m.FullName(), Kind: h.kind}
}
