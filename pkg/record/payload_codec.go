package record

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/encoding/json"
)

// PayloadCodec encodes and decodes the payload of one variant.
type PayloadCodec interface {
	// Prototype returns the zero payload of the variant.
	Prototype() Value
	Encode(v Value) ([]byte, error)
	Decode(data []byte) (Value, error)
}

// JSONCodec is the PayloadCodec of a struct payload T. Every JSON key of T without
// omitempty must be present on decode, in nested structs and slices of structs too.
// Only pointer, map, slice and interface fields may be null. Decoded payloads must
// satisfy T's validate tags.
type JSONCodec[T Value] struct {
	shape    *payloadShape
	validate *validator.Validate
}

func NewJSONCodec[T Value]() *JSONCodec[T] {
	var zero T
	return &JSONCodec[T]{
		shape:    newPayloadShape(reflect.TypeOf(zero), map[reflect.Type]*payloadShape{}),
		validate: validator.New(),
	}
}

func (c *JSONCodec[T]) Prototype() Value {
	var zero T
	return zero
}

func (c *JSONCodec[T]) Encode(v Value) ([]byte, error) {
	t, ok := v.(T)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not %T", ErrUnknownVariant, v, c.Prototype())
	}
	if err := c.validate.Struct(t); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, t.ValueType(), err)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t.ValueType(), err)
	}
	return data, nil
}

func (c *JSONCodec[T]) Decode(data []byte) (Value, error) {
	var t T
	vt := t.ValueType()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: %s value must be a JSON object", ErrMalformedPayload, vt)
	}

	if problems := c.shape.check(fields, "", nil); len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s value: %s", ErrMalformedPayload, vt, strings.Join(problems, ", "))
	}

	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, vt, err)
	}
	if err := c.validate.Struct(t); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, vt, err)
	}
	return t, nil
}

type shapeField struct {
	name     string
	nullable bool
	nested   *payloadShape
	list     bool
}

// payloadShape lists the required JSON keys of a struct type, sorted by name.
type payloadShape struct {
	fields []shapeField
}

func newPayloadShape(t reflect.Type, seen map[reflect.Type]*payloadShape) *payloadShape {
	s := &payloadShape{}
	if t == nil || t.Kind() != reflect.Struct {
		return s
	}
	if cached, ok := seen[t]; ok {
		return cached
	}
	seen[t] = s

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		if strings.Contains(opts, "omitempty") {
			continue
		}

		field := shapeField{name: name}
		switch f.Type.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Interface:
			field.nullable = true
		case reflect.Slice:
			field.nullable = true
			if f.Type.Elem().Kind() == reflect.Struct {
				field.nested = newPayloadShape(f.Type.Elem(), seen)
				field.list = true
			}
		case reflect.Struct:
			field.nested = newPayloadShape(f.Type, seen)
		}
		s.fields = append(s.fields, field)
	}
	sort.Slice(s.fields, func(i, j int) bool { return s.fields[i].name < s.fields[j].name })
	return s
}

// check appends to problems every required key absent from fields and every
// non-nullable key set to null. Nested paths are reported as "a[0].b".
// Values of the wrong JSON type are left to the typed decode.
func (s *payloadShape) check(fields map[string]json.RawMessage, prefix string, problems []string) []string {
	for _, f := range s.fields {
		path := prefix + f.name
		raw, ok := fields[f.name]
		switch {
		case !ok:
			problems = append(problems, "missing "+path)
			continue
		case isNull(raw):
			if !f.nullable {
				problems = append(problems, "null "+path)
			}
			continue
		case f.nested == nil:
			continue
		}

		if !f.list {
			problems = f.nested.checkRaw(raw, path+".", problems)
			continue
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			continue
		}
		for i, e := range elems {
			problems = f.nested.checkRaw(e, fmt.Sprintf("%s[%d].", path, i), problems)
		}
	}
	return problems
}

func (s *payloadShape) checkRaw(raw json.RawMessage, prefix string, problems []string) []string {
	if isNull(raw) {
		return append(problems, "null "+strings.TrimSuffix(prefix, "."))
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return problems
	}
	return s.check(fields, prefix, problems)
}
