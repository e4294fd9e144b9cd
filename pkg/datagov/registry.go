package datagov

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/lei/datagov-gateway/pkg/datagov/schema"
	"github.com/lei/datagov-gateway/pkg/datagov/transform"
)

var (
	// ErrRegistryFrozen is returned when registering into a frozen registry
	ErrRegistryFrozen = errors.New("registry is frozen")

	// ErrDuplicateResource is returned when a resource id is registered twice
	ErrDuplicateResource = errors.New("resource already registered")

	// ErrInvalidResourceID is returned for ids that are not a single URL path segment
	ErrInvalidResourceID = errors.New("invalid resource id")
)

// Descriptor identifies a queryable resource. Descriptors are created with
// NewResource; the unexported decode step keeps them statically typed.
type Descriptor interface {
	ID() string
	decode(raw []json.RawMessage) (Result, error)
}

// Resource binds a resource id to its transformer and collection type
type Resource[T any] struct {
	id        string
	transform transform.Func[T]
	factory   CollectionFactory[T]
}

// NewResource describes a resource whose items become records of type T.
// A nil factory defaults to NewCollection.
func NewResource[T any](id string, fn transform.Func[T], factory CollectionFactory[T]) *Resource[T] {
	if factory == nil {
		factory = NewCollection[T]
	}
	return &Resource[T]{id: id, transform: fn, factory: factory}
}

// ID returns the resource id used in the query path
func (r *Resource[T]) ID() string {
	return r.id
}

func (r *Resource[T]) decode(raw []json.RawMessage) (Result, error) {
	return r.records(raw)
}

// records transforms every raw item, failing on the first bad one
func (r *Resource[T]) records(raw []json.RawMessage) (*Collection[T], error) {
	out := make([]T, 0, len(raw))

	for i, msg := range raw {
		var item schema.Item
		if err := json.Unmarshal(msg, &item); err != nil || item == nil {
			return nil, &TransformError{
				Resource: r.id,
				Index:    i,
				Item:     msg,
				Reason:   "item is not a JSON object",
				Err:      err,
			}
		}

		rec, err := r.transform(item)
		if err != nil {
			terr := &TransformError{
				Resource: r.id,
				Index:    i,
				Item:     msg,
				Reason:   err.Error(),
				Err:      err,
			}
			var fe *schema.FieldError
			if errors.As(err, &fe) {
				terr.Field = fe.Field
				terr.Reason = fe.Reason
			}
			return nil, terr
		}

		out = append(out, rec)
	}

	return r.factory(r.id, out), nil
}

// Registry maps resource ids to their descriptors.
//
// Registration happens during setup; after Freeze the registry is read-only
// and lookups need no locking.
type Registry struct {
	resources map[string]Descriptor
	frozen    atomic.Bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{resources: make(map[string]Descriptor)}
}

// Register adds a resource descriptor
func (r *Registry) Register(d Descriptor) error {
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	if d == nil || d.ID() == "" {
		return fmt.Errorf("register resource: empty id: %w", ErrInvalidResourceID)
	}
	if err := validateID(d.ID()); err != nil {
		return err
	}
	if _, exists := r.resources[d.ID()]; exists {
		return fmt.Errorf("register %s: %w", d.ID(), ErrDuplicateResource)
	}

	r.resources[d.ID()] = d
	return nil
}

// validateID rejects ids that would not stay one segment under BaseEndpoint
func validateID(id string) error {
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") || id == "." {
		return fmt.Errorf("register %q: %w", id, ErrInvalidResourceID)
	}
	return nil
}

// MustRegister is Register for package initialization; it panics on error
func (r *Registry) MustRegister(ds ...Descriptor) *Registry {
	for _, d := range ds {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup returns the descriptor registered under id
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	d, ok := r.resources[id]
	return d, ok
}

// IDs returns the registered resource ids in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.resources))
	for id := range r.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Freeze makes the registry read-only
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

// Frozen reports whether Freeze has been called
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}
