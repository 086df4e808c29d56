package apiclient

import "encoding/json"

// listKeys are the envelope keys endpoints have been seen to use, tried in
// order.
var listKeys = []string{"data", "orders", "clients", "products", "transactions", "results"}

// UnwrapList extracts a slice from whatever shape the server sent: a bare
// JSON array, or an object wrapping the array under a known key. Unknown
// shapes yield an empty slice, never an error; a missing list and an empty
// list are the same thing to a consumer.
func UnwrapList[T any](raw []byte) []T {
	var direct []T
	if err := json.Unmarshal(raw, &direct); err == nil {
		if direct == nil {
			return []T{}
		}
		return direct
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return []T{}
	}
	for _, key := range listKeys {
		inner, ok := envelope[key]
		if !ok {
			continue
		}
		var list []T
		if err := json.Unmarshal(inner, &list); err == nil {
			if list == nil {
				return []T{}
			}
			return list
		}
	}
	return []T{}
}
