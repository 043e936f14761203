package firebase

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// decodeCollection turns a Realtime Database collection into a slice. The database
// returns either a map keyed by generated IDs or, for sequential integer keys, an array
// that may contain nulls. setID stamps the key onto each element.
func decodeCollection[T any](raw json.RawMessage, setID func(*T, string)) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	if raw[0] == '[' {
		var list []*T
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		out := make([]T, 0, len(list))
		for i, v := range list {
			if v == nil {
				continue
			}
			setID(v, strconv.Itoa(i))
			out = append(out, *v)
		}
		return out, nil
	}

	var keyed map[string]T
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keyed))
	for _, k := range keys {
		v := keyed[k]
		setID(&v, k)
		out = append(out, v)
	}
	return out, nil
}
