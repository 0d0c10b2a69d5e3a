// Package tuning exposes named, bounded float parameters that can be
// changed while the scene is running.
package tuning

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"haunted-house/core"
)

var (
	ErrUnknownParam = errors.New("unknown parameter")
	ErrOutOfRange   = errors.New("parameter out of range")
)

// Param is one bound value.
type Param struct {
	Name     string
	Min, Max float32

	// OnChange runs on the render thread after the value is written.
	OnChange func(v float32)

	target *float32
}

// Value reads the bound variable.
func (p *Param) Value() float32 {
	return *p.target
}

func (p *Param) set(v float32) {
	*p.target = v
	if p.OnChange != nil {
		p.OnChange(v)
	}
}

// Panel owns the bindings. Set writes immediately and must only be called
// from the render thread; Queue may be called from anywhere and takes
// effect at the next ApplyPending.
type Panel struct {
	params map[string]*Param

	mu      sync.Mutex
	pending map[string]float32
}

func NewPanel() *Panel {
	return &Panel{params: make(map[string]*Param)}
}

// Bind registers target under name with an inclusive range.
func (p *Panel) Bind(name string, target *float32, min, max float32) (*Param, error) {
	switch {
	case target == nil:
		return nil, core.ConfigErrorf("bind %q: nil target", name)
	case min > max:
		return nil, core.ConfigErrorf("bind %q: min %v above max %v", name, min, max)
	}
	if _, dup := p.params[name]; dup {
		return nil, core.ConfigErrorf("bind %q: already bound", name)
	}
	param := &Param{Name: name, Min: min, Max: max, target: target}
	p.params[name] = param
	return param, nil
}

// Set writes v to the bound variable.
func (p *Panel) Set(name string, v float32) error {
	param, err := p.check(name, v)
	if err != nil {
		return err
	}
	param.set(v)
	return nil
}

// Get reads a bound value.
func (p *Panel) Get(name string) (float32, error) {
	param, ok := p.params[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return param.Value(), nil
}

// Param looks up a binding.
func (p *Panel) Param(name string) (*Param, bool) {
	param, ok := p.params[name]
	return param, ok
}

// Names lists bound names in sorted order.
func (p *Panel) Names() []string {
	names := make([]string, 0, len(p.params))
	for n := range p.params {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Queue validates values and stores the valid ones for the next
// ApplyPending. Invalid entries are reported together and skipped.
func (p *Panel) Queue(values map[string]float32) error {
	var errs []error
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, v := range values {
		if _, err := p.check(name, v); err != nil {
			errs = append(errs, err)
			continue
		}
		if p.pending == nil {
			p.pending = make(map[string]float32)
		}
		p.pending[name] = v
	}
	return errors.Join(errs...)
}

// ApplyPending writes queued values. It runs between frames.
func (p *Panel) ApplyPending() {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	for name, v := range pending {
		p.params[name].set(v)
	}
}

// Values snapshots every bound value.
func (p *Panel) Values() map[string]float32 {
	out := make(map[string]float32, len(p.params))
	for name, param := range p.params {
		out[name] = param.Value()
	}
	return out
}

func (p *Panel) check(name string, v float32) (*Param, error) {
	param, ok := p.params[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if !(v >= param.Min && v <= param.Max) {
		return nil, fmt.Errorf("%w: %s = %v, want [%v, %v]", ErrOutOfRange, name, v, param.Min, param.Max)
	}
	return param, nil
}
