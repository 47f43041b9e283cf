package format

// Registry maps container names to definitions, preserving insertion
// order. It is built once and treated as immutable afterwards.
type Registry struct {
	order  []string
	byName map[string]ContainerFormat
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ContainerFormat)}
}

// Register adds a container. A name can be registered once; a second
// registration fails with ErrDuplicateName and leaves the registry as is.
func (r *Registry) Register(name string, c ContainerFormat) error {
	if _, exists := r.byName[name]; exists {
		return ValidationError{
			Field:   name,
			Message: "container is already registered",
			Code:    ErrDuplicateName,
		}
	}
	r.order = append(r.order, name)
	r.byName[name] = c
	return nil
}

// MustRegister is Register for statically known registries. It panics on
// a duplicate name.
func (r *Registry) MustRegister(name string, c ContainerFormat) *Registry {
	if err := r.Register(name, c); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the container registered under name.
func (r *Registry) Lookup(name string) (ContainerFormat, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns container names in insertion order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of containers.
func (r *Registry) Len() int {
	return len(r.order)
}

// Each calls fn for every container in insertion order.
func (r *Registry) Each(fn func(name string, c ContainerFormat)) {
	for _, name := range r.order {
		fn(name, r.byName[name])
	}
}
