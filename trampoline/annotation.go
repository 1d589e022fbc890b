package trampoline

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
)

var validate = validator.New()

type refDeclaration struct {
	Names []string `validate:"unique,dive,required"`
}

// ValidateRefNames rejects a reference declaration that names a parameter
// more than once.
func ValidateRefNames(names []string) error {
	err := validate.Struct(refDeclaration{Names: names})
	if err == nil {
		return nil
	}
	if dups := duplicates(names); len(dups) > 0 {
		return &errors.DuplicateRefError{Names: dups}
	}
	return &errors.ConfigError{Field: "refs", Err: err}
}

func duplicates(names []string) []string {
	counts := make(map[string]int, len(names))
	for _, n := range names {
		counts[n]++
	}
	var out []string
	for n, c := range counts {
		if c > 1 {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

type refCore struct {
	ports.CoreFunction
	refs []string
}

func (c *refCore) Refs() []string {
	return append([]string(nil), c.refs...)
}

// UsingRefs annotates core with the parameter names it may write back to.
func UsingRefs(core ports.CoreFunction, names ...string) (ports.CoreFunction, error) {
	if err := ValidateRefNames(names); err != nil {
		return nil, err
	}
	return &refCore{CoreFunction: core, refs: append([]string(nil), names...)}, nil
}

// RefsOf returns the reference names declared on core, if any.
func RefsOf(core ports.CoreFunction) []string {
	if d, ok := core.(ports.RefDeclarer); ok {
		return d.Refs()
	}
	return nil
}
