package util

import (
	"sort"
	"strings"
)

// RemoveDuplicate keeps the first occurrence of every string, preserving order.
func RemoveDuplicate(source []string) (result []string) {
	if len(source) == 0 {
		return
	}
	tmpMap := make(map[string]interface{})
	for _, s := range source {
		if _, ok := tmpMap[s]; !ok {
			result = append(result, s)
			tmpMap[s] = nil
		}
	}
	return
}

// SplitAndTrim splits s on sep, trims every element and drops empty ones.
func SplitAndTrim(s, sep string) (result []string) {
	for _, tok := range strings.Split(s, sep) {
		if tok = strings.TrimSpace(tok); tok != "" {
			result = append(result, tok)
		}
	}
	return
}

// SortedKeys returns the keys of a string-keyed map in order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContainsString reports whether s is in list.
func ContainsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
