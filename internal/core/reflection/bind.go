package reflection

import (
	"fmt"
	"strings"

	"github.com/PhoenixWhitefire/PhoenixEngine-sub002/internal/core/value"
)

// Bind adapts typed accessors to a Getter/Setter pair. T is usually an
// interface implemented by the class and all of its descendants, so a base
// class entry keeps working on derived instances. A nil set yields a nil
// Setter (read-only property).
func Bind[T any](get func(T) value.Value, set func(T, value.Value) error) (Getter, Setter) {
	getter := func(self any) (value.Value, error) {
		t, err := receiver[T](self)
		if err != nil {
			return value.Null(), err
		}
		return get(t), nil
	}
	if set == nil {
		return getter, nil
	}
	setter := func(self any, v value.Value) error {
		t, err := receiver[T](self)
		if err != nil {
			return err
		}
		return set(t, v)
	}
	return getter, setter
}

// BindProcedure adapts a typed procedure body.
func BindProcedure[T any](fn func(T, []value.Value) (value.Value, error)) ProcedureFunc {
	return func(self any, args []value.Value) (value.Value, error) {
		t, err := receiver[T](self)
		if err != nil {
			return value.Null(), err
		}
		return fn(t, args)
	}
}

func receiver[T any](self any) (T, error) {
	t, ok := self.(T)
	if !ok {
		var zero T
		want := strings.TrimPrefix(fmt.Sprintf("%T", (*T)(nil)), "*")
		return zero, fmt.Errorf("%w: %T is not %s", ErrInvalidReceiver, self, want)
	}
	return t, nil
}

// Typed setter helpers. Api.Set has already checked the tag, so the
// conversion errors below only fire when a setter is called directly.

func SetDouble[T any](apply func(T, float64)) func(T, value.Value) error {
	return func(t T, v value.Value) error {
		d, err := v.AsDouble()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValueType, err)
		}
		apply(t, d)
		return nil
	}
}

func SetBool[T any](apply func(T, bool)) func(T, value.Value) error {
	return func(t T, v value.Value) error {
		b, err := v.AsBool()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValueType, err)
		}
		apply(t, b)
		return nil
	}
}

func SetString[T any](apply func(T, string)) func(T, value.Value) error {
	return func(t T, v value.Value) error {
		s, err := v.AsString()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValueType, err)
		}
		apply(t, s)
		return nil
	}
}

func SetVector3[T any](apply func(T, value.Vector3)) func(T, value.Value) error {
	return func(t T, v value.Value) error {
		vec, err := v.AsVector3()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValueType, err)
		}
		apply(t, vec)
		return nil
	}
}

func SetColor[T any](apply func(T, value.Color)) func(T, value.Value) error {
	return func(t T, v value.Value) error {
		c, err := v.AsColor()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidValueType, err)
		}
		apply(t, c)
		return nil
	}
}
