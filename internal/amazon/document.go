package amazon

import "strconv"

// Document is one loosely typed Amazon-shaped JSON object, as produced by
// encoding/json into interface values. Path helpers below keep the
// unknown-shape handling in one place; everything else works on typed records.
type Document = map[string]interface{}

// GetPath resolves a dotted path like "ItemInfo.Title.DisplayValue" against
// the tree. Numeric segments index into lists ("Offers.Listings.0"). The
// second return is false when any segment is missing or of the wrong kind.
func GetPath(doc Document, path string) (interface{}, bool) {
	var current interface{} = doc

	for _, key := range splitPath(path) {
		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[key]
			if !ok {
				return nil, false
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}

	return current, true
}

// SetPath writes a value at a dotted path, creating intermediate objects as
// needed. Numeric segments address lists, which are grown with empty objects
// up to the requested index. The input document is modified in place.
func SetPath(doc Document, path string, value interface{}) {
	keys := splitPath(path)
	var parent interface{} = doc

	for i, key := range keys {
		last := i == len(keys)-1

		switch node := parent.(type) {
		case map[string]interface{}:
			if last {
				node[key] = value
				return
			}
			child, ok := node[key]
			if !ok || !traversable(child, keys[i+1]) {
				child = emptyNodeFor(keys[i+1])
				node[key] = child
			}
			if slice, ok := child.([]interface{}); ok {
				idx, _ := strconv.Atoi(keys[i+1])
				grown := growSlice(slice, idx)
				if len(grown) != len(slice) {
					node[key] = grown
				}
				child = grown
			}
			parent = child
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return
			}
			if last {
				node[idx] = value
				return
			}
			if !traversable(node[idx], keys[i+1]) {
				node[idx] = emptyNodeFor(keys[i+1])
			}
			parent = node[idx]
		default:
			return
		}
	}
}

// GetString returns the string at path, or "" when absent or not a string.
func GetString(doc Document, path string) string {
	v, ok := GetPath(doc, path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetFloat returns the number at path, or 0 when absent or not numeric.
func GetFloat(doc Document, path string) float64 {
	v, ok := GetPath(doc, path)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

// GetInt returns the number at path truncated to int.
func GetInt(doc Document, path string) int {
	return int(GetFloat(doc, path))
}

// GetBool returns the bool at path, or false when absent or not a bool.
func GetBool(doc Document, path string) bool {
	v, ok := GetPath(doc, path)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Has reports whether the path resolves to a non-empty value. Empty strings
// count as missing, matching the required-field semantics of the importer.
func Has(doc Document, path string) bool {
	v, ok := GetPath(doc, path)
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}

// Clone deep-copies a document so overlays never mutate the stored original.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	return cloneValue(doc).(map[string]interface{})
}

func cloneValue(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, child := range node {
			out[k] = cloneValue(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, child := range node {
			out[i] = cloneValue(child)
		}
		return out
	default:
		return v
	}
}

func splitPath(path string) []string {
	var keys []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			keys = append(keys, path[start:i])
			start = i + 1
		}
	}
	return append(keys, path[start:])
}

func traversable(v interface{}, nextKey string) bool {
	if _, err := strconv.Atoi(nextKey); err == nil {
		_, ok := v.([]interface{})
		return ok
	}
	_, ok := v.(map[string]interface{})
	return ok
}

func emptyNodeFor(nextKey string) interface{} {
	if idx, err := strconv.Atoi(nextKey); err == nil {
		return growSlice(nil, idx)
	}
	return map[string]interface{}{}
}

func growSlice(s []interface{}, idx int) []interface{} {
	for len(s) <= idx {
		s = append(s, map[string]interface{}{})
	}
	return s
}
