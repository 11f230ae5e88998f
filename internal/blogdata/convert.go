package blogdata

import (
	"time"

	"relmap"
)

// MySQL drivers hand back integers, []byte, or time.Time depending on
// column type and statement kind; these coercions flatten that into the
// record field types, failing with a TypeMismatchError on anything else.

func asInt64(field string, v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case []byte:
		var out int64
		for _, c := range n {
			if c < '0' || c > '9' {
				return 0, &relmap.TypeMismatchError{Field: field, Expected: "int64", Value: v}
			}
			out = out*10 + int64(c-'0')
		}
		return out, nil
	default:
		return 0, &relmap.TypeMismatchError{Field: field, Expected: "int64", Value: v}
	}
}

func asString(field string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", &relmap.TypeMismatchError{Field: field, Expected: "string", Value: v}
	}
}

func asNullString(field string, v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := asString(field, v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func asBool(field string, v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	default:
		n, err := asInt64(field, v)
		if err != nil {
			return false, &relmap.TypeMismatchError{Field: field, Expected: "bool", Value: v}
		}
		return n != 0, nil
	}
}

func asTime(field string, v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		parsed, err := time.Parse("2006-01-02 15:04:05", string(t))
		if err != nil {
			return time.Time{}, &relmap.TypeMismatchError{Field: field, Expected: "time", Value: v}
		}
		return parsed, nil
	case string:
		parsed, err := time.Parse("2006-01-02 15:04:05", t)
		if err != nil {
			return time.Time{}, &relmap.TypeMismatchError{Field: field, Expected: "time", Value: v}
		}
		return parsed, nil
	default:
		return time.Time{}, &relmap.TypeMismatchError{Field: field, Expected: "time", Value: v}
	}
}

func asNullInt64(field string, v any) (*int64, error) {
	if v == nil {
		return nil, nil
	}
	n, err := asInt64(field, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
