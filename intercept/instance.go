package intercept

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/host"
)

var validate = validator.New()

type instanceConfig struct {
	ID string `validate:"required,max=128"`
}

// Instance is one owner of patches. Hooks installed by different instances on
// the same method all run, in the order they were installed.
type Instance struct {
	logger     *slog.Logger
	table      *PatchTable
	id         string
	middleware []Middleware
}

// CreateInstance creates an interception instance identified by id.
//
// Example usage:
//
//	inst, err := intercept.CreateInstance("com.example.mod",
//	    intercept.WithLogger(logger),
//	)
func CreateInstance(id string, opts ...Option) (*Instance, error) {
	if err := validate.Struct(instanceConfig{ID: id}); err != nil {
		return nil, &errors.ConfigError{Field: "id", Err: err}
	}

	inst := &Instance{
		id:     id,
		logger: slog.Default(),
		table:  DefaultTable(),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst, nil
}

// ID returns the owner id.
func (i *Instance) ID() string {
	return i.id
}

// Patch installs prefix and postfix hooks on original. Either hook may be nil
// but not both. Transpilers are recognized and rejected.
func (i *Instance) Patch(original *host.Method, prefix, postfix, transpiler *entities.HookMethod) (*entities.PatchRecord, error) {
	if original == nil {
		return nil, fmt.Errorf("patch: original method is nil")
	}
	if transpiler != nil {
		return nil, &errors.NotImplementedError{Feature: "transpilers"}
	}
	if prefix == nil && postfix == nil {
		return nil, fmt.Errorf("patch %s: no hooks given", original.FullName())
	}

	record := &entities.PatchRecord{Owner: i.id, Target: original.FullName()}
	var pre, post *installedHook
	if prefix != nil {
		b, err := bindHook(original, prefix, entities.PatchPrefix)
		if err != nil {
			return nil, err
		}
		pre = i.install(b)
		record.Prefix = prefix.Name
	}
	if postfix != nil {
		b, err := bindHook(original, postfix, entities.PatchPostfix)
		if err != nil {
			return nil, err
		}
		post = i.install(b)
		record.Postfix = postfix.Name
	}

	i.table.add(original, i.id, pre, post)
	i.logger.Info("patched method",
		slog.String("owner", i.id),
		slog.String("target", record.Target),
		slog.String("prefix", record.Prefix),
		slog.String("postfix", record.Postfix),
	)
	return record, nil
}

// Unpatch removes every hook this instance installed on original. It reports
// whether anything was removed.
func (i *Instance) Unpatch(original *host.Method) bool {
	removed := i.table.remove(original, i.id)
	if removed {
		i.logger.Info("unpatched method", slog.String("owner", i.id), slog.String("target", original.FullName()))
	}
	return removed
}

// Patches returns the records of all hooks installed on m, by any owner, in
// installation order.
func (i *Instance) Patches(m *host.Method) []entities.PatchRecord {
	return i.table.Records(m)
}

func (i *Instance) install(b *boundHook) *installedHook {
	mw := make([]Middleware, 0, len(i.middleware)+2)
	mw = append(mw, PanicRecoveryMiddleware(), LoggingMiddleware(i.logger))
	mw = append(mw, i.middleware...)
	return &installedHook{
		owner: i.id,
		name:  b.name,
		kind:  b.kind,
		run:   chain(b.invoke, mw),
	}
}
