package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/handle"
)

// Coerce converts a decoded YAML/JSON datum into a Value of the wanted tag.
// It is meant for data files, where numbers and lists arrive untyped; the
// script boundary itself never coerces.
func Coerce(raw any, want Tag) (Value, error) {
	if raw == nil {
		if want == TagNull || want == TagObjectRef {
			return Null(), nil
		}
		return Null(), mismatch(want, TagNull)
	}
	switch want {
	case TagNull:
		return Null(), fmt.Errorf("%w: %T cannot be Null", ErrTypeMismatch, raw)
	case TagBool:
		if b, ok := raw.(bool); ok {
			return Bool(b), nil
		}
	case TagInteger:
		if f, ok := number(raw); ok && f == math.Trunc(f) {
			return Integer(int64(f)), nil
		}
	case TagDouble:
		if f, ok := number(raw); ok {
			return Double(f), nil
		}
	case TagString:
		if s, ok := raw.(string); ok {
			return String(s), nil
		}
	case TagVector3:
		if x, y, z, ok := triple(raw, "x", "y", "z"); ok {
			return Vec3(Vector3{x, y, z}), nil
		}
	case TagColor:
		if s, ok := raw.(string); ok {
			c, err := parseHexColor(s)
			if err != nil {
				return Null(), err
			}
			return Col(c), nil
		}
		if r, g, b, ok := triple(raw, "r", "g", "b"); ok {
			return Col(Color{r, g, b}), nil
		}
	case TagArray:
		if list, ok := raw.([]any); ok {
			arr := NewArray()
			for _, item := range list {
				arr.Append(Infer(item))
			}
			return FromArray(arr), nil
		}
	}
	return Null(), fmt.Errorf("%w: cannot use %T as %s", ErrTypeMismatch, raw, want)
}

// Infer picks the natural tag for an untyped datum.
func Infer(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case int:
		return Integer(int64(x))
	case int64:
		return Integer(x)
	case uint64:
		return Integer(int64(x))
	case float32:
		return Double(float64(x))
	case float64:
		return Double(x)
	case string:
		return String(x)
	case []any:
		v, _ := Coerce(x, TagArray)
		return v
	}
	return String(fmt.Sprint(raw))
}

// ToAny is the inverse of Coerce, producing plain data for encoders.
func ToAny(v Value) (any, error) { return toAny(v, 0) }

func toAny(v Value, depth int) (any, error) {
	switch v.tag {
	case TagNull:
		return nil, nil
	case TagBool:
		return v.b, nil
	case TagInteger:
		return v.i, nil
	case TagDouble:
		return v.d, nil
	case TagString:
		return v.s, nil
	case TagVector3:
		return []float64{v.v3.X, v.v3.Y, v.v3.Z}, nil
	case TagColor:
		return []float64{v.col.R, v.col.G, v.col.B}, nil
	case TagArray:
		if depth >= MaxDepth {
			return nil, fmt.Errorf("%w: arrays nested past %d", ErrTooDeep, MaxDepth)
		}
		out := make([]any, 0, v.arr.Len())
		for _, item := range v.arr.Items() {
			x, err := toAny(item, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case TagObjectRef:
		return uint64(v.ref), nil
	}
	return nil, fmt.Errorf("%w: %s values cannot be encoded", ErrTypeMismatch, v.tag)
}

type wireValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) { return v.marshal(0) }

func (v Value) marshal(depth int) ([]byte, error) {
	w := wireValue{Type: v.tag.String()}
	var data any
	switch v.tag {
	case TagNull:
		return json.Marshal(w)
	case TagArray:
		if depth >= MaxDepth {
			return nil, fmt.Errorf("%w: arrays nested past %d", ErrTooDeep, MaxDepth)
		}
		items := make([]json.RawMessage, 0, v.arr.Len())
		for _, item := range v.arr.Items() {
			raw, err := item.marshal(depth + 1)
			if err != nil {
				return nil, err
			}
			items = append(items, raw)
		}
		data = items
	case TagFunction:
		data = v.fn.Name()
	default:
		var err error
		if data, err = toAny(v, depth); err != nil {
			return nil, err
		}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	w.Value = raw
	return json.Marshal(w)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	tag, err := ParseTag(w.Type)
	if err != nil {
		return err
	}
	switch tag {
	case TagNull:
		*v = Null()
	case TagBool:
		var b bool
		err = json.Unmarshal(w.Value, &b)
		*v = Bool(b)
	case TagInteger:
		var i int64
		err = json.Unmarshal(w.Value, &i)
		*v = Integer(i)
	case TagDouble:
		var d float64
		err = json.Unmarshal(w.Value, &d)
		*v = Double(d)
	case TagString:
		var s string
		err = json.Unmarshal(w.Value, &s)
		*v = String(s)
	case TagVector3:
		var xyz [3]float64
		err = json.Unmarshal(w.Value, &xyz)
		*v = Vec3(Vector3{xyz[0], xyz[1], xyz[2]})
	case TagColor:
		var rgb [3]float64
		err = json.Unmarshal(w.Value, &rgb)
		*v = Col(Color{rgb[0], rgb[1], rgb[2]})
	case TagArray:
		var items []Value
		err = json.Unmarshal(w.Value, &items)
		*v = ArrayOf(items...)
	case TagObjectRef:
		var id uint64
		err = json.Unmarshal(w.Value, &id)
		*v = Ref(handle.ID(id))
	case TagFunction:
		return fmt.Errorf("%w: functions cannot be decoded", ErrTypeMismatch)
	}
	return err
}

func number(raw any) (float64, bool) {
	switch x := raw.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func triple(raw any, k1, k2, k3 string) (a, b, c float64, ok bool) {
	switch x := raw.(type) {
	case []any:
		if len(x) != 3 {
			return 0, 0, 0, false
		}
		var oks [3]bool
		a, oks[0] = number(x[0])
		b, oks[1] = number(x[1])
		c, oks[2] = number(x[2])
		return a, b, c, oks[0] && oks[1] && oks[2]
	case []float64:
		if len(x) != 3 {
			return 0, 0, 0, false
		}
		return x[0], x[1], x[2], true
	case map[string]any:
		var oks [3]bool
		a, oks[0] = number(x[k1])
		b, oks[1] = number(x[k2])
		c, oks[2] = number(x[k3])
		return a, b, c, oks[0] && oks[1] && oks[2]
	}
	return 0, 0, 0, false
}

func parseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%w: bad color %q", ErrTypeMismatch, s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: bad color %q", ErrTypeMismatch, s)
	}
	return Color{
		R: float64(n>>16&0xff) / 255,
		G: float64(n>>8&0xff) / 255,
		B: float64(n&0xff) / 255,
	}, nil
}
