//go:build unit || e2e

package testutil

// a helper function for dynamically modifying map fields in tests
func Field(key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		if value == nil {
			delete(m, key)
		} else {
			m[key] = value
		}
	}
}

// like Field, for a key inside a nested object
func NestedField(parent, key string, value any) func(m map[string]any) {
	return func(m map[string]any) {
		child, ok := m[parent].(map[string]any)
		if !ok {
			return
		}
		Field(key, value)(child)
	}
}
