package ltdplan

import (
	"fmt"
	"sort"
)

// Walk calls fn for every Value reachable from v, depth first. Map keys are
// visited in sorted order so traversal is deterministic.
func Walk(v any, fn func(path string, val Value)) {
	walk("", v, fn)
}

func walk(path string, v any, fn func(string, Value)) {
	switch tv := v.(type) {
	case Join:
		fn(path, tv)
		for i, p := range tv.Parts {
			walk(fmt.Sprintf("%s[%d]", path, i), p, fn)
		}
	case Value:
		fn(path, tv)
	case Props:
		walkMap(path, tv, fn)
	case map[string]any:
		walkMap(path, tv, fn)
	case []any:
		for i, e := range tv {
			walk(fmt.Sprintf("%s[%d]", path, i), e, fn)
		}
	}
}

func walkMap(path string, m map[string]any, fn func(string, Value)) {
	for _, k := range sortedKeys(m) {
		p := k
		if path != "" {
			p = path + "." + k
		}
		walk(p, m[k], fn)
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
