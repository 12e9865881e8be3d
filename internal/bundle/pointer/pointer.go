// Package pointer implements slash-delimited path addressing over nested
// map/array documents.
//
// A pointer is a string of the form "/seg1/seg2/...". Each segment is either
// an object key or a non-negative array index. The empty string addresses the
// document root. Reads resolve left to right and report absence instead of
// failing; writes create missing intermediate containers along the path.
//
// Numeric segments address arrays on write: setting through a numeric segment
// always creates or extends an array, padding any gap with nil placeholders so
// later iteration never sees a sparse hole. On read, a numeric segment indexes
// an array when the current node is an array and is treated as an object key
// when the current node is a map.
package pointer

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse splits a pointer into its segments. The empty pointer addresses the
// document root and yields no segments.
func Parse(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, fmt.Errorf("pointer %q must start with '/'", ptr)
	}
	segments := strings.Split(ptr[1:], "/")
	for _, segment := range segments {
		if segment == "" {
			return nil, fmt.Errorf("pointer %q contains an empty segment", ptr)
		}
	}
	return segments, nil
}

// Get resolves ptr against root. It returns the value and true when every
// segment resolves, and (nil, false) otherwise, including for malformed
// pointers.
func Get(root any, ptr string) (any, bool) {
	segments, err := Parse(ptr)
	if err != nil {
		return nil, false
	}
	current := root
	for _, segment := range segments {
		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = value
		case []any:
			i, ok := arrayIndex(segment)
			if !ok || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}

// Set writes value at ptr, creating missing intermediate containers: numeric
// segments create or extend arrays, other segments create objects. An
// intermediate node of the wrong kind is replaced by a fresh container. The
// returned root must be used by the caller since writes at the root or through
// array extension can replace the top-level value. The empty pointer replaces
// the whole document.
func Set(root any, ptr string, value any) (any, error) {
	segments, err := Parse(ptr)
	if err != nil {
		return root, err
	}
	if len(segments) == 0 {
		return value, nil
	}
	return write(root, segments, value), nil
}

// Delete removes the value at ptr. Missing paths are a no-op. The empty
// pointer deletes the whole document. As with Set, the caller must use the
// returned root.
func Delete(root any, ptr string) any {
	segments, err := Parse(ptr)
	if err != nil {
		return root
	}
	if len(segments) == 0 {
		return nil
	}
	return remove(root, segments)
}

func write(node any, segments []string, value any) any {
	segment := segments[0]
	if i, ok := arrayIndex(segment); ok {
		arr, isArr := node.([]any)
		if !isArr {
			arr = nil
		}
		for len(arr) <= i {
			arr = append(arr, nil)
		}
		if len(segments) == 1 {
			arr[i] = value
		} else {
			arr[i] = write(arr[i], segments[1:], value)
		}
		return arr
	}

	obj, isObj := node.(map[string]any)
	if !isObj {
		obj = map[string]any{}
	}
	if len(segments) == 1 {
		obj[segment] = value
	} else {
		obj[segment] = write(obj[segment], segments[1:], value)
	}
	return obj
}

func remove(node any, segments []string) any {
	segment := segments[0]
	switch current := node.(type) {
	case map[string]any:
		if len(segments) == 1 {
			delete(current, segment)
			return current
		}
		if child, ok := current[segment]; ok {
			current[segment] = remove(child, segments[1:])
		}
		return current
	case []any:
		i, ok := arrayIndex(segment)
		if !ok || i >= len(current) {
			return current
		}
		if len(segments) == 1 {
			return append(current[:i], current[i+1:]...)
		}
		current[i] = remove(current[i], segments[1:])
		return current
	default:
		return node
	}
}

func arrayIndex(segment string) (int, bool) {
	if segment == "" {
		return 0, false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return i, true
}
