package blueprint

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/talvor/tmxblueprints/scene"
)

var (
	ErrUnknownType    = errors.New("blueprint: unknown record type")
	ErrUnknownVariant = errors.New("blueprint: no enum variant matches")
)

// Variant is one named value of an enum record type.
type Variant[T any] struct {
	Name  string
	Value T
}

// Type is what the registry knows about one record type.
type Type struct {
	// Name is the unqualified type name property keys refer to.
	Name string
	// Path is the fully qualified name records are stored under.
	Path string

	typ      reflect.Type
	variants []string
	values   []reflect.Value
}

func (t *Type) IsEnum() bool { return t.variants != nil }

// VariantNames returns the declared variant names in registration order.
func (t *Type) VariantNames() []string { return slices.Clone(t.variants) }

func (t *Type) ReflectType() reflect.Type { return t.typ }

// Variant resolves name against the variant names, ignoring case.
func (t *Type) Variant(name string) (string, bool) {
	for _, v := range t.variants {
		if strings.EqualFold(v, name) {
			return v, true
		}
	}
	return "", false
}

func (t *Type) variantValue(name string) (reflect.Value, bool) {
	if i := slices.Index(t.variants, name); i >= 0 {
		return t.values[i], true
	}
	for i, v := range t.variants {
		if strings.EqualFold(v, name) {
			return t.values[i], true
		}
	}
	return reflect.Value{}, false
}

// Parse decodes a notation value into a new T and returns it as any.
func (t *Type) Parse(r *Registry, text string) (any, error) {
	v, err := ParseValue(text)
	if err != nil {
		return nil, err
	}
	return r.decode(t, v)
}

// Registry maps record type names to their capabilities. It is built once
// and then only read.
type Registry struct {
	byName map[string]*Type
	byPath map[string]*Type
	byType map[reflect.Type]*Type
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Type),
		byPath: make(map[string]*Type),
		byType: make(map[reflect.Type]*Type),
	}
}

// Register adds T as a record type. It panics if T is unnamed or if another
// registered type has the same unqualified name.
func Register[T any](r *Registry) *Type {
	return r.add(reflect.TypeFor[T](), nil, nil)
}

// RegisterEnum adds T as an enum record type with the given variants.
func RegisterEnum[T any](r *Registry, variants ...Variant[T]) *Type {
	names := make([]string, len(variants))
	values := make([]reflect.Value, len(variants))
	for i, v := range variants {
		names[i] = v.Name
		values[i] = reflect.ValueOf(v.Value)
	}
	return r.add(reflect.TypeFor[T](), names, values)
}

func (r *Registry) add(rt reflect.Type, variants []string, values []reflect.Value) *Type {
	if rt.Name() == "" {
		panic(fmt.Sprintf("blueprint: cannot register unnamed type %v", rt))
	}
	if prev, ok := r.byName[rt.Name()]; ok {
		panic(fmt.Sprintf("blueprint: type name %q already registered as %s", rt.Name(), prev.Path))
	}
	t := &Type{
		Name:     rt.Name(),
		Path:     scene.TypeName(rt),
		typ:      rt,
		variants: variants,
		values:   values,
	}
	r.byName[t.Name] = t
	r.byPath[t.Path] = t
	r.byType[rt] = t
	return t
}

// Lookup finds a type by its unqualified, case-sensitive name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// LookupPath finds a type by its fully qualified name.
func (r *Registry) LookupPath(path string) (*Type, bool) {
	t, ok := r.byPath[path]
	return t, ok
}

// Names returns the unqualified names of all registered types, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Deserialize decodes a `{ "type.path": value }` document into a value of
// the named registered type.
func (r *Registry) Deserialize(doc string) (*Type, any, error) {
	path, v, err := ParseDocument(doc)
	if err != nil {
		return nil, nil, err
	}
	t, ok := r.byPath[path]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownType, path)
	}
	out, err := r.decode(t, v)
	if err != nil {
		return t, nil, err
	}
	return t, out, nil
}

func (r *Registry) decode(t *Type, v Value) (any, error) {
	dst := reflect.New(t.typ).Elem()
	if err := r.decodeInto(dst, v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t.Name, err)
	}
	return dst.Interface(), nil
}
