package utils

import (
	"net/url"
	"strings"
)

// Helpers over the multi valued request parameter map. Parameters
// like facet.field legitimately repeat, so operations here preserve
// multiplicity instead of collapsing to last value wins.

func AddParam(params url.Values, name, value string) {
	params[name] = append(params[name], value)
}

// AddParamOnce adds the value only when it is not already present,
// keeping repeated rewrite passes idempotent.
func AddParamOnce(params url.Values, name, value string) {
	for _, existing := range params[name] {
		if existing == value {
			return
		}
	}
	AddParam(params, name, value)
}

func ReplaceParam(params url.Values, name, value string) {
	params[name] = []string{value}
}

// RemoveMatchingValues removes every whole entry of the named
// parameter whose value contains the given substring. Entries are
// never partially edited.
func RemoveMatchingValues(params url.Values, name, substring string) {
	values, pres := params[name]
	if !pres {
		return
	}

	kept := make([]string, 0, len(values))
	for _, value := range values {
		if !strings.Contains(value, substring) {
			kept = append(kept, value)
		}
	}

	if len(kept) == 0 {
		delete(params, name)
	} else {
		params[name] = kept
	}
}

// CopyParams builds an independent copy so a rewrite never aliases
// the inbound request's map.
func CopyParams(params url.Values) url.Values {
	result := make(url.Values, len(params))
	for name, values := range params {
		result[name] = append([]string(nil), values...)
	}
	return result
}
