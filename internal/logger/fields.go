package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Field represents a structured log field.
type Field interface {
	Key() string
	Value() any
	ZapField() zap.Field
}

// ZapField wraps a zap.Field and implements the Field interface.
type ZapField struct {
	zapField zap.Field
}

// Key returns the field's key.
func (f ZapField) Key() string {
	return f.zapField.Key
}

// Value returns the field's value.
func (f ZapField) Value() any {
	return f.zapField.Interface
}

// ZapField returns the underlying zap.Field.
func (f ZapField) ZapField() zap.Field {
	return f.zapField
}

var (
	String = func(key, val string) Field {
		return ZapField{zap.String(key, val)}
	}

	Strings = func(key string, val []string) Field {
		return ZapField{zap.Strings(key, val)}
	}

	Int = func(key string, val int) Field {
		return ZapField{zap.Int(key, val)}
	}

	Uint64 = func(key string, val uint64) Field {
		return ZapField{zap.Uint64(key, val)}
	}

	Bool = func(key string, val bool) Field {
		return ZapField{zap.Bool(key, val)}
	}

	Duration = func(key string, val time.Duration) Field {
		return ZapField{zap.Duration(key, val)}
	}

	Error = func(err error) Field {
		return ZapField{zap.Error(err)}
	}

	Stringer = func(key string, val fmt.Stringer) Field {
		return ZapField{zap.Stringer(key, val)}
	}

	Any = func(key string, val any) Field {
		return ZapField{zap.Any(key, val)}
	}
)
