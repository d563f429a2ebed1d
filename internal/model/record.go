package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/sparkpad/internal/spec"
)

// Blob timestamps use RFC 3339 with nanoseconds, always UTC.
const timeLayout = time.RFC3339Nano

func timeToValue(t time.Time) spec.Value {
	if t.IsZero() {
		return spec.Null{}
	}
	return spec.String(t.UTC().Format(timeLayout))
}

func timeFromValue(v spec.Value) (time.Time, error) {
	switch val := v.(type) {
	case nil, spec.Null:
		return time.Time{}, nil
	case spec.String:
		t, err := time.Parse(timeLayout, string(val))
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("timestamp is %T, not a string", v)
	}
}

func idsToValue(ids []int64) spec.List {
	out := make(spec.List, len(ids))
	for i, id := range ids {
		out[i] = spec.Int(id)
	}
	return out
}

func idsFromValue(v spec.Value) ([]int64, error) {
	switch val := v.(type) {
	case nil, spec.Null:
		return nil, nil
	case spec.List:
		out := make([]int64, len(val))
		for i, elem := range val {
			n, ok := elem.(spec.Int)
			if !ok {
				return nil, fmt.Errorf("id list[%d] is %T, not an integer", i, elem)
			}
			out[i] = int64(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("id list is %T, not a list", v)
	}
}

// linksToValue encodes an adjacency map with decimal string keys, the
// only dict key form JSON permits.
func linksToValue(links map[int64][]int64) spec.Dict {
	out := make(spec.Dict, len(links))
	for parent, children := range links {
		out[strconv.FormatInt(parent, 10)] = idsToValue(children)
	}
	return out
}

func linksFromValue(v spec.Value) (map[int64][]int64, error) {
	switch val := v.(type) {
	case nil, spec.Null:
		return map[int64][]int64{}, nil
	case spec.Dict:
		out := make(map[int64][]int64, len(val))
		for key, children := range val {
			parent, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("links key %q: %w", key, err)
			}
			ids, err := idsFromValue(children)
			if err != nil {
				return nil, fmt.Errorf("links[%s]: %w", key, err)
			}
			if ids == nil {
				ids = []int64{}
			}
			out[parent] = ids
		}
		return out, nil
	default:
		return nil, fmt.Errorf("links is %T, not a dict", v)
	}
}

func dictField(d spec.Dict, key string) (spec.Dict, error) {
	v, ok := d[key]
	if !ok {
		return spec.Dict{}, nil
	}
	switch val := v.(type) {
	case spec.Null:
		return spec.Dict{}, nil
	case spec.Dict:
		return val, nil
	default:
		return nil, fmt.Errorf("field %q is %T, not a dict", key, v)
	}
}

func decodeBlob(data []byte) (spec.Dict, error) {
	v, err := spec.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode blob: %w", err)
	}
	d, ok := v.(spec.Dict)
	if !ok {
		return nil, fmt.Errorf("blob is %T, not an object", v)
	}
	return d, nil
}
