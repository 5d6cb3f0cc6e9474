package common

import "reflect"

// UnknownStr is returned by String methods for out-of-range enum values.
const UnknownStr = "unknown"

// TypeName returns the short name of t with pointers stripped.
// Unnamed types fall back to their string form.
func TypeName(t reflect.Type) string {
	if t == nil {
		return UnknownStr
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Name() != "" {
		return t.Name()
	}

	return t.String()
}
