package db

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrUnrepresentable indicates a column value with no plain Go equivalent,
// such as a numeric NaN or a numeric beyond the float64 range.
var ErrUnrepresentable = errors.New("platform/db: unrepresentable value")

// normalizeValue converts driver representations into plain Go values:
// UUIDs become their canonical string, numerics become float64 and raw bytes
// become strings. Anything else passes through.
func normalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String(), nil
	case pgtype.UUID:
		if !val.Valid {
			return nil, nil
		}
		return uuid.UUID(val.Bytes).String(), nil
	case pgtype.Numeric:
		return numericValue(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("%w: float %v", ErrUnrepresentable, val)
		}
		return val, nil
	case []byte:
		return string(val), nil
	default:
		return v, nil
	}
}

func numericValue(n pgtype.Numeric) (any, error) {
	if !n.Valid {
		return nil, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, fmt.Errorf("%w: numeric NaN or infinity", ErrUnrepresentable)
	}
	f, err := n.Float64Value()
	if err != nil {
		return nil, fmt.Errorf("%w: numeric: %w", ErrUnrepresentable, err)
	}
	if !f.Valid || math.IsInf(f.Float64, 0) || math.IsNaN(f.Float64) {
		return nil, fmt.Errorf("%w: numeric out of float64 range", ErrUnrepresentable)
	}
	return f.Float64, nil
}
