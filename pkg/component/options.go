package component

import "github.com/vango-dev/reactor/pkg/vdom"

// Hook names a lifecycle phase.
type Hook string

const (
	BeforeCreate  Hook = "beforeCreate"
	Created       Hook = "created"
	BeforeMount   Hook = "beforeMount"
	Mounted       Hook = "mounted"
	BeforeUpdate  Hook = "beforeUpdate"
	Updated       Hook = "updated"
	Activated     Hook = "activated"
	Deactivated   Hook = "deactivated"
	BeforeDestroy Hook = "beforeDestroy"
	Destroyed     Hook = "destroyed"
)

// HookFunc is a lifecycle hook.
type HookFunc func(inst *Instance) error

// RenderFunc produces an instance's tree. It may return a *vdom.VNode, a
// []*vdom.VNode of length 1, or nil.
type RenderFunc func(inst *Instance) (any, error)

// ErrorCapturedFunc observes an error raised in a descendant. Returning
// false stops propagation to further ancestors and the runtime reporter.
type ErrorCapturedFunc func(err error, origin *Instance, info string) bool

// Prop declares a prop accepted from the parent.
type Prop struct {
	Default     any
	DefaultFunc func() any
}

func (p Prop) value() any {
	if p.DefaultFunc != nil {
		return p.DefaultFunc()
	}
	return p.Default
}

// Injection declares a value resolved from the nearest providing ancestor.
// A nil Default with a nil DefaultFunc means there is no default unless
// HasDefault is set.
type Injection struct {
	// From is the provided key to look up. Defaults to the injection name.
	From        string
	Default     any
	DefaultFunc func(inst *Instance) any

	// HasDefault makes Default the fallback even when it is nil.
	HasDefault bool
}

// Watcher declares a watcher created during instance initialisation.
type Watcher struct {
	// Name identifies the watcher in reports.
	Name      string
	Getter    func(inst *Instance) any
	Handler   func(inst *Instance, newValue, oldValue any) error
	Immediate bool
	Sync      bool
}

// Options is a component definition. It is shared by every instance of the
// component and must not be modified after first use.
type Options struct {
	Name string

	// Abstract instances are skipped when attaching children to a parent.
	Abstract bool

	Props    map[string]Prop
	Data     func(inst *Instance) map[string]any
	Computed map[string]func(inst *Instance) any
	Watch    []Watcher
	Provide  func(inst *Instance) map[string]any
	Inject   map[string]Injection

	// Store lists shared store keys this component attaches to, with the
	// initial value used if the key does not exist yet.
	Store map[string]func() any

	Hooks         map[Hook][]HookFunc
	ErrorCaptured []ErrorCapturedFunc
	Render        RenderFunc
}

// On appends fn to the hooks for phase and returns o.
func (o *Options) On(phase Hook, fn HookFunc) *Options {
	if o.Hooks == nil {
		o.Hooks = make(map[Hook][]HookFunc)
	}
	o.Hooks[phase] = append(o.Hooks[phase], fn)
	return o
}

func (o *Options) displayName() string {
	if o == nil || o.Name == "" {
		return "Anonymous"
	}
	return o.Name
}

// Child creates a component placeholder node for opts. Arguments are the
// same as for vdom.H: props via vdom.Prop, listeners via vdom.On, a key via
// vdom.Key.
func Child(opts *Options, args ...any) *vdom.VNode {
	return vdom.Component(opts.displayName(), opts, args...)
}
