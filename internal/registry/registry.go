package registry

import "github.com/alphadose/haxmap"

// Registry is a named set of values fixed at construction time.
type Registry[T any] interface {
	Get(name string) (T, bool)
	Names() []string
	Len() int
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
	names  []string
}

// Entry pairs a name with its value.
type Entry[T any] struct {
	Name  string
	Value T
}

// New builds a registry from the given entries. A repeated name replaces the
// earlier value but keeps its original position.
func New[T any](entries ...Entry[T]) Registry[T] {
	r := &registry[T]{
		values: haxmap.New[string, T](),
		names:  make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		if _, exists := r.values.Get(e.Name); !exists {
			r.names = append(r.names, e.Name)
		}
		r.values.Set(e.Name, e.Value)
	}
	return r
}

func (r *registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

// Names returns the registered names in registration order.
func (r *registry[T]) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *registry[T]) Len() int {
	return len(r.names)
}
