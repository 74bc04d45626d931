package blueprint

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// DecodeError reports a value that does not fit its destination type.
type DecodeError struct {
	Offset int
	Type   reflect.Type
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("blueprint: cannot decode into %v at offset %d: %s", e.Type, e.Offset, e.Msg)
}

func mismatch(dst reflect.Value, v Value) error {
	return &DecodeError{Offset: v.Offset, Type: dst.Type(), Msg: fmt.Sprintf("unexpected %v", v.Kind)}
}

func (r *Registry) decodeInto(dst reflect.Value, v Value) error {
	if t, ok := r.byType[dst.Type()]; ok && t.IsEnum() {
		return r.decodeEnum(t, dst, v)
	}

	// A one-field tuple stands for its only member when the destination is
	// not itself a tuple-like type.
	if v.Kind == TupleValue && dst.Kind() != reflect.Struct && dst.Kind() != reflect.Pointer {
		if len(v.Fields) != 1 || v.Fields[0].Name != "" {
			return mismatch(dst, v)
		}
		return r.decodeInto(dst, v.Fields[0].Value)
	}

	switch dst.Kind() {
	case reflect.Pointer:
		p := reflect.New(dst.Type().Elem())
		if err := r.decodeInto(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Bool:
		if v.Kind != BoolValue {
			return mismatch(dst, v)
		}
		dst.SetBool(v.Bool)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Kind != NumberValue {
			return mismatch(dst, v)
		}
		n, err := strconv.ParseInt(strings.ReplaceAll(v.Text, "_", ""), 10, dst.Type().Bits())
		if err != nil {
			return &DecodeError{Offset: v.Offset, Type: dst.Type(), Msg: err.Error()}
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Kind != NumberValue {
			return mismatch(dst, v)
		}
		n, err := strconv.ParseUint(strings.ReplaceAll(v.Text, "_", ""), 10, dst.Type().Bits())
		if err != nil {
			return &DecodeError{Offset: v.Offset, Type: dst.Type(), Msg: err.Error()}
		}
		dst.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		if v.Kind != NumberValue {
			return mismatch(dst, v)
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(v.Text, "_", ""), dst.Type().Bits())
		if err != nil {
			return &DecodeError{Offset: v.Offset, Type: dst.Type(), Msg: err.Error()}
		}
		dst.SetFloat(f)
		return nil
	case reflect.String:
		switch v.Kind {
		case StringValue, IdentValue, NumberValue, BoolValue:
			dst.SetString(v.Text)
			return nil
		}
		return mismatch(dst, v)
	case reflect.Slice:
		if v.Kind != ListValue {
			return mismatch(dst, v)
		}
		s := reflect.MakeSlice(dst.Type(), len(v.Items), len(v.Items))
		for i, item := range v.Items {
			if err := r.decodeInto(s.Index(i), item); err != nil {
				return err
			}
		}
		dst.Set(s)
		return nil
	case reflect.Struct:
		return r.decodeStruct(dst, v)
	}
	return &DecodeError{Offset: v.Offset, Type: dst.Type(), Msg: "unsupported destination kind"}
}

func (r *Registry) decodeEnum(t *Type, dst reflect.Value, v Value) error {
	if v.Kind == TupleValue && v.Name == "" && len(v.Fields) == 1 && v.Fields[0].Name == "" {
		v = v.Fields[0].Value
	}
	if v.Kind != IdentValue && v.Kind != StringValue {
		return mismatch(dst, v)
	}
	val, ok := t.variantValue(v.Text)
	if !ok {
		return fmt.Errorf("%w: %q, valid values: %s", ErrUnknownVariant, v.Text, strings.Join(t.variants, ", "))
	}
	dst.Set(val)
	return nil
}

func (r *Registry) decodeStruct(dst reflect.Value, v Value) error {
	st := dst.Type()
	fields := exportedFields(st)

	// Marker types carry no data; whatever value the property held only
	// asks for the marker to be present.
	if len(fields) == 0 {
		return nil
	}

	if v.Kind != TupleValue {
		if len(fields) == 1 {
			return r.decodeInto(dst.Field(fields[0]), v)
		}
		return mismatch(dst, v)
	}

	// (Name(...)) wraps a struct literal of the destination type itself.
	if v.Name == "" && len(v.Fields) == 1 && v.Fields[0].Name == "" {
		inner := v.Fields[0].Value
		if inner.Kind == TupleValue && inner.Name == st.Name() {
			v = inner
		}
	}

	if v.Positional() {
		if len(v.Fields) > len(fields) {
			return &DecodeError{Offset: v.Offset, Type: st, Msg: fmt.Sprintf("%d values for %d fields", len(v.Fields), len(fields))}
		}
		for i, f := range v.Fields {
			if err := r.decodeInto(dst.Field(fields[i]), f.Value); err != nil {
				return err
			}
		}
		return nil
	}

	for _, f := range v.Fields {
		if f.Name == "" {
			return &DecodeError{Offset: f.Value.Offset, Type: st, Msg: "positional value among named fields"}
		}
		i, ok := fieldByName(st, fields, f.Name)
		if !ok {
			return &DecodeError{Offset: f.Value.Offset, Type: st, Msg: fmt.Sprintf("unknown field %q", f.Name)}
		}
		if err := r.decodeInto(dst.Field(i), f.Value); err != nil {
			return err
		}
	}
	return nil
}

func exportedFields(st reflect.Type) []int {
	var idx []int
	for i := range st.NumField() {
		if st.Field(i).IsExported() {
			idx = append(idx, i)
		}
	}
	return idx
}

// fieldByName matches the blueprint tag first, then the field name ignoring
// case and underscores.
func fieldByName(st reflect.Type, fields []int, name string) (int, bool) {
	for _, i := range fields {
		if tag, ok := st.Field(i).Tag.Lookup("blueprint"); ok && tag == name {
			return i, true
		}
	}
	norm := strings.ReplaceAll(name, "_", "")
	for _, i := range fields {
		if strings.EqualFold(st.Field(i).Name, norm) {
			return i, true
		}
	}
	return 0, false
}
