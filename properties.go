package tmx

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

type PropertyType int

const (
	StringProperty PropertyType = iota
	BoolProperty
	IntProperty
	FloatProperty
	ColorProperty
	FileProperty
	ObjectProperty
	ClassProperty
)

func (t PropertyType) String() string {
	switch t {
	case StringProperty:
		return "string"
	case BoolProperty:
		return "bool"
	case IntProperty:
		return "int"
	case FloatProperty:
		return "float"
	case ColorProperty:
		return "color"
	case FileProperty:
		return "file"
	case ObjectProperty:
		return "object"
	case ClassProperty:
		return "class"
	}
	return fmt.Sprintf("PropertyType(%d)", int(t))
}

// Color is an 8-bit RGBA color as written by the editor.
type Color struct {
	R, G, B, A uint8
}

// PropertyValue is a tagged union; only the field matching Type is set.
type PropertyValue struct {
	Type   PropertyType
	Bool   bool
	Int    int64
	Float  float64
	String string // Also the resolved path of file properties.
	Color  Color
	Object int
	Class  Properties
}

func BoolValue(b bool) PropertyValue { return PropertyValue{Type: BoolProperty, Bool: b} }
func IntValue(i int64) PropertyValue { return PropertyValue{Type: IntProperty, Int: i} }
func FloatValue(f float64) PropertyValue { return PropertyValue{Type: FloatProperty, Float: f} }
func StringValue(s string) PropertyValue { return PropertyValue{Type: StringProperty, String: s} }
func ColorValue(c Color) PropertyValue { return PropertyValue{Type: ColorProperty, Color: c} }
func FileValue(p string) PropertyValue { return PropertyValue{Type: FileProperty, String: p} }
func ObjectValue(id int) PropertyValue { return PropertyValue{Type: ObjectProperty, Object: id} }
func ClassValue(p Properties) PropertyValue { return PropertyValue{Type: ClassProperty, Class: p} }

// Properties maps property names to values. Iteration order carries no meaning.
type Properties map[string]PropertyValue

func decodeProperties(raw []propertyXML, baseDir string) (Properties, error) {
	if len(raw) == 0 {
		return Properties{}, nil
	}
	props := make(Properties, len(raw))
	for _, p := range raw {
		v, err := decodeProperty(p, baseDir)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		props[p.Name] = v
	}
	return props, nil
}

func decodeProperty(p propertyXML, baseDir string) (PropertyValue, error) {
	value := p.Value
	if value == "" {
		// Multi-line strings are stored as element text.
		value = p.Text
	}

	switch p.Type {
	case "", "string":
		return StringValue(value), nil
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("%w: %v", ErrInvalidPropertyValue, err)
		}
		return BoolValue(b), nil
	case "int":
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("%w: %v", ErrInvalidPropertyValue, err)
		}
		return IntValue(i), nil
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("%w: %v", ErrInvalidPropertyValue, err)
		}
		return FloatValue(f), nil
	case "color":
		c, err := parseColor(value)
		if err != nil {
			return PropertyValue{}, err
		}
		return ColorValue(c), nil
	case "file":
		if value == "" {
			return FileValue(""), nil
		}
		return FileValue(path.Join(baseDir, value)), nil
	case "object":
		if value == "" {
			return ObjectValue(0), nil
		}
		id, err := strconv.Atoi(value)
		if err != nil {
			return PropertyValue{}, fmt.Errorf("%w: %v", ErrInvalidPropertyValue, err)
		}
		return ObjectValue(id), nil
	case "class":
		nested, err := decodeProperties(p.Properties, baseDir)
		if err != nil {
			return PropertyValue{}, err
		}
		return ClassValue(nested), nil
	}
	return PropertyValue{}, fmt.Errorf("%w: unknown type %q", ErrInvalidPropertyValue, p.Type)
}

// parseColor accepts #AARRGGBB and #RRGGBB. An empty value is transparent black.
func parseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return Color{}, nil
	}

	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: color %q", ErrInvalidPropertyValue, s)
	}

	switch len(s) {
	case 8:
		return Color{A: uint8(n >> 24), R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
	case 6:
		return Color{A: 0xff, R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
	}
	return Color{}, fmt.Errorf("%w: color %q", ErrInvalidPropertyValue, s)
}
