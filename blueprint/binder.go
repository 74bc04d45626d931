// Package blueprint binds the free-form properties of a map onto typed
// records of scene nodes. A property whose key names a registered type is
// decoded into a value of that type and attached; a key of the form
// "remove:TypeName" detaches that type; every other key is ignored.
package blueprint

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	tmx "github.com/talvor/tmxblueprints"
	"github.com/talvor/tmxblueprints/scene"
)

// RemovePrefix marks a property key that removes a record type.
const RemovePrefix = "remove:"

var ErrUnbalanced = errors.New("blueprint: unbalanced parentheses")

// BindError reports a property that could not be turned into a record.
type BindError struct {
	Key   string
	Value string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("blueprint: property %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// LinearRgba is the record form of color properties, channels in 0..1.
type LinearRgba struct {
	Red   float32
	Green float32
	Blue  float32
	Alpha float32
}

// Shape is the outer form of a rendered property value.
type Shape int

const (
	// Bare text has no surrounding parentheses. Struct literals such as
	// rendered colors, Name(...), are bare too.
	Bare Shape = iota
	// Wrapped text is already a tuple or struct body.
	Wrapped
	// Unbalanced text opens or closes a parenthesis on one side only.
	Unbalanced
)

// Classify looks only at the outer delimiters of text.
func Classify(text string) Shape {
	open, close := strings.HasPrefix(text, "("), strings.HasSuffix(text, ")")
	switch {
	case !open && close && isStructLiteral(text):
		return Bare
	case open && close:
		return Wrapped
	case !open && !close:
		return Bare
	}
	return Unbalanced
}

func isStructLiteral(text string) bool {
	name, _, ok := strings.Cut(text, "(")
	if !ok || name == "" {
		return false
	}
	for i, r := range name {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

// Render returns the canonical text of a property value. Colors become a
// LinearRgba struct; file, object and class values render empty.
func Render(v tmx.PropertyValue) string {
	switch v.Type {
	case tmx.BoolProperty:
		return strconv.FormatBool(v.Bool)
	case tmx.IntProperty:
		return strconv.FormatInt(v.Int, 10)
	case tmx.FloatProperty:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case tmx.StringProperty:
		return v.String
	case tmx.ColorProperty:
		return fmt.Sprintf("LinearRgba(red:%s,green:%s,blue:%s, alpha:%s)",
			channel(v.Color.R), channel(v.Color.G), channel(v.Color.B), channel(v.Color.A))
	}
	return ""
}

func channel(c uint8) string {
	return strconv.FormatFloat(float64(float32(c)/255), 'f', -1, 32)
}

// Document builds the notation document for a property of type t.
func Document(t *Type, text string) (string, error) {
	var body string
	switch Classify(text) {
	case Wrapped:
		body = text
	case Bare:
		if t.IsEnum() {
			variant, ok := t.Variant(text)
			if !ok {
				return "", fmt.Errorf("%w: %q, valid values: %s", ErrUnknownVariant, text, strings.Join(t.variants, ", "))
			}
			body = variant
		} else {
			body = "(" + text + ")"
		}
	default:
		return "", ErrUnbalanced
	}
	return fmt.Sprintf("{ %s: %s }", strconv.Quote(t.Path), body), nil
}

// Insert queues v as the t record of node.
func (t *Type) Insert(cmds *scene.Commands, node scene.NodeID, v any) {
	cmds.Push(scene.AttachRecord{Node: node, Type: t.Path, Value: v})
}

// RemoveFrom queues the removal of the t record of node.
func (t *Type) RemoveFrom(cmds *scene.Commands, node scene.NodeID) {
	cmds.Push(scene.RemoveRecord{Node: node, Type: t.Path})
}

type Binder struct {
	Registry *Registry
	Logger   zerolog.Logger
}

func NewBinder(r *Registry) *Binder {
	return &Binder{Registry: r, Logger: log.Logger}
}

// Bind queues the record insertions and removals props asks for on node.
// A property that fails to decode is logged and skipped; the others still
// bind, and all failures are returned joined.
func (b *Binder) Bind(props tmx.Properties, node scene.NodeID, cmds *scene.Commands) error {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var errs []error
	for _, k := range keys {
		if t, ok := b.Registry.Lookup(k); ok {
			if err := b.insert(t, k, props[k], node, cmds); err != nil {
				b.Logger.Error().Err(err).Str("property", k).Stringer("node", node).Msg("failed to bind property")
				errs = append(errs, err)
			}
			continue
		}

		name, ok := strings.CutPrefix(k, RemovePrefix)
		if !ok {
			continue
		}
		t, ok := b.Registry.Lookup(name)
		if !ok {
			b.Logger.Warn().Str("property", k).Stringer("node", node).Msg("cannot remove unknown record type")
			continue
		}
		t.RemoveFrom(cmds, node)
		b.Logger.Info().Str("type", t.Path).Stringer("node", node).Msg("removed record")
	}
	return errors.Join(errs...)
}

func (b *Binder) insert(t *Type, key string, pv tmx.PropertyValue, node scene.NodeID, cmds *scene.Commands) error {
	text := strings.TrimSpace(Render(pv))

	doc, err := Document(t, text)
	if err != nil {
		return &BindError{Key: key, Value: text, Err: err}
	}
	_, v, err := b.Registry.Deserialize(doc)
	if err != nil {
		return &BindError{Key: key, Value: text, Err: err}
	}

	t.Insert(cmds, node, v)
	b.Logger.Info().Str("type", t.Path).Stringer("node", node).Msg("added record")
	return nil
}
