package graph

import (
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// ============================================================================
// Helper Functions
// ============================================================================

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// propertyList turns a driver property map into a list sorted by key
func propertyList(props map[string]any) []Property {
	keys := sortedKeys(props)
	list := make([]Property, 0, len(keys))
	for _, k := range keys {
		list = append(list, Property{Key: k, Value: normalizeValue(props[k])})
	}
	return list
}

func propertyMap(props map[string]any) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = normalizeValue(v)
	}
	return out
}

// normalizeValue converts driver temporal types to time.Time so entity
// fields can use the standard type
func normalizeValue(v any) any {
	switch t := v.(type) {
	case dbtype.Date:
		return time.Time(t)
	case dbtype.LocalDateTime:
		return time.Time(t)
	case dbtype.LocalTime:
		return time.Time(t)
	case dbtype.Time:
		return time.Time(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	}
	return v
}

func unionLabels(existing, more []string) []string {
	for _, l := range more {
		found := false
		for _, e := range existing {
			if e == l {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, l)
		}
	}
	return existing
}
