package trampoline

import (
	"fmt"
	"log/slog"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
	"github.com/reglet-dev/reglet-hooks/domain/errors"
	"github.com/reglet-dev/reglet-hooks/domain/ports"
)

// PatchRequest names a target and the core functions to install on it. A
// successful Patch fills in Descriptor and Record and sets Applied.
type PatchRequest struct {
	// Target is a method reference accepted by Resolve.
	Target any

	Prefix     ports.CoreFunction
	Postfix    ports.CoreFunction
	Transpiler ports.CoreFunction

	Descriptor *entities.TargetDescriptor
	Record     *entities.PatchRecord
	Applied    bool
}

// Option is a functional option for configuring a Patcher.
type Option func(*Patcher)

// WithLogger sets the logger for resolution, build and emission events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Patcher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStore sets the store wrappers are registered in. Defaults to DefaultStorage.
func WithStore(store ports.AddressStore) Option {
	return func(p *Patcher) {
		if store != nil {
			p.store = store
		}
	}
}

// Patcher registers core functions as hooks through an interceptor.
type Patcher struct {
	interceptor ports.Interceptor
	store       ports.AddressStore
	logger      *slog.Logger
}

// NewPatcher creates a patcher installing hooks through interceptor.
//
// Example usage:
//
//	inst, _ := intercept.CreateInstance("com.example.mod")
//	p := trampoline.NewPatcher(inst, trampoline.WithLogger(logger))
//	_, err := p.Patch(&trampoline.PatchRequest{Target: m, Prefix: core})
func NewPatcher(interceptor ports.Interceptor, opts ...Option) *Patcher {
	p := &Patcher{
		interceptor: interceptor,
		store:       DefaultStorage,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Patch resolves the target once, builds and emits a trampoline for each
// supplied role and installs them. It returns req, marked as applied.
func (p *Patcher) Patch(req *PatchRequest) (*PatchRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("patch: nil request")
	}

	target, err := Resolve(req.Target)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("resolved target", slog.String("target", target.FullName()))

	if req.Transpiler != nil {
		return nil, &errors.NotImplementedError{Feature: "transpilers"}
	}
	if req.Prefix == nil && req.Postfix == nil {
		return nil, fmt.Errorf("patch %s: no hooks given", target.FullName())
	}

	prefix, err := p.prepare(req.Prefix, entities.PatchPrefix, target)
	if err != nil {
		return nil, err
	}
	postfix, err := p.prepare(req.Postfix, entities.PatchPostfix, target)
	if err != nil {
		return nil, err
	}

	record, err := p.interceptor.Patch(target.Target, prefix, postfix, nil)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", target.FullName(), err)
	}
	p.logger.Debug("registered patch",
		slog.String("owner", record.Owner),
		slog.String("target", record.Target),
	)

	req.Descriptor = target
	req.Record = record
	req.Applied = true
	return req, nil
}

func (p *Patcher) prepare(core ports.CoreFunction, role entities.PatchKind, target *entities.TargetDescriptor) (*entities.HookMethod, error) {
	if core == nil {
		return nil, nil
	}

	spec, err := Build(core, target, RefsOf(core))
	if err != nil {
		return nil, err
	}
	if spec.Kind != role {
		return nil, &errors.IncompatibleSignatureError{
			Hook:   core.Name(),
			Reason: fmt.Sprintf("%s function supplied as %s", spec.Kind, role),
		}
	}
	p.logger.Debug("built specification",
		slog.String("name", spec.Name),
		slog.Any("params", spec.CoreParams),
		slog.Any("refs", spec.Refs.Names()),
	)

	token := p.store.Store(newAffixWrapper(core))
	hook, prog := NewEmitter(p.store).emit(spec, token)
	p.logger.Debug("emitted trampoline",
		slog.String("name", hook.Name),
		slog.String("signature", hook.Type().String()),
		slog.String("program", prog.String()),
	)
	return hook, nil
}
