package frame

import (
	"fmt"
	"strconv"
	"time"
)

// Record is a single flat row keyed by column name.
type Record map[string]any

// Time returns the value under key as a time.
func (r Record) Time(key string) (time.Time, error) {
	v, ok := r[key]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrColumnNotFound, key)
	}
	ts, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("frame: %s is %T, not a time", key, v)
	}
	return ts, nil
}

// Key renders an identifier value as a map key. Strings pass through and
// integers are formatted in base 10; nil reports false.
func Key(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		return id, true
	case int64:
		return strconv.FormatInt(id, 10), true
	case int32:
		return strconv.FormatInt(int64(id), 10), true
	case int:
		return strconv.Itoa(id), true
	case fmt.Stringer:
		return id.String(), true
	default:
		return fmt.Sprint(id), true
	}
}
