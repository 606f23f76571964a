package confcrypt

import (
	"fmt"
	"strconv"
	"strings"
)

// Sensitive paths address leaves in a document tree: dot-separated
// segments, each optionally carrying a trailing [N] sequence index, e.g.
// "db.credentials[0].password".

type pathSegment struct {
	key      string
	index    int
	hasIndex bool
}

func parsePath(path string) ([]pathSegment, error) {
	if path == "" {
		return nil, &PathResolutionError{Path: path, Message: "empty path"}
	}

	parts := strings.Split(path, ".")
	segments := make([]pathSegment, 0, len(parts))
	for _, part := range parts {
		seg := pathSegment{key: part}
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, &PathResolutionError{Path: path, Segment: part, Message: "malformed sequence index"}
			}
			idx, err := strconv.Atoi(part[i+1 : len(part)-1])
			if err != nil || idx < 0 {
				return nil, &PathResolutionError{Path: path, Segment: part, Message: "invalid sequence index"}
			}
			seg.key = part[:i]
			seg.index = idx
			seg.hasIndex = true
		}
		if seg.key == "" {
			return nil, &PathResolutionError{Path: path, Segment: part, Message: "empty segment"}
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// GetPath resolves a sensitive path against a document. It never errors:
// a missing or shape-incompatible intermediate node, an index out of
// range, or a malformed path all report absence via ok == false.
func GetPath(doc map[string]any, path string) (value any, ok bool) {
	segments, err := parsePath(path)
	if err != nil {
		return nil, false
	}

	var node any = doc
	for _, seg := range segments {
		m, isMap := node.(map[string]any)
		if !isMap {
			return nil, false
		}
		child, exists := m[seg.key]
		if !exists {
			return nil, false
		}
		if seg.hasIndex {
			list, isList := child.([]any)
			if !isList || seg.index >= len(list) {
				return nil, false
			}
			child = list[seg.index]
		}
		node = child
	}
	return node, true
}

// SetPath returns a copy of doc with the leaf at path replaced by value.
// Maps and sequences along the path are copied; untouched substructure is
// shared with the input. Missing intermediate mapping nodes are created.
// A PathResolutionError is returned when an intermediate segment exists
// but is not a mapping or sequence of compatible shape, or when a
// sequence index is out of range (sequences are never grown implicitly).
func SetPath(doc map[string]any, path string, value any) (map[string]any, error) {
	segments, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	out, err := setSegments(doc, segments, path, value)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func setSegments(node any, segments []pathSegment, path string, value any) (any, error) {
	seg := segments[0]

	var m map[string]any
	switch n := node.(type) {
	case nil:
		m = make(map[string]any, 1)
	case map[string]any:
		m = make(map[string]any, len(n)+1)
		for k, v := range n {
			m[k] = v
		}
	default:
		return nil, &PathResolutionError{
			Path:    path,
			Segment: seg.key,
			Message: fmt.Sprintf("cannot descend into %T", node),
		}
	}

	child, exists := m[seg.key]

	if seg.hasIndex {
		list, isList := child.([]any)
		if !isList {
			msg := "cannot index a missing sequence"
			if exists {
				msg = fmt.Sprintf("cannot index into %T", child)
			}
			return nil, &PathResolutionError{Path: path, Segment: seg.key, Message: msg}
		}
		if seg.index >= len(list) {
			return nil, &PathResolutionError{
				Path:    path,
				Segment: seg.key,
				Message: fmt.Sprintf("index %d out of range (len %d)", seg.index, len(list)),
			}
		}

		copied := make([]any, len(list))
		copy(copied, list)
		if len(segments) == 1 {
			copied[seg.index] = value
		} else {
			sub, err := setSegments(list[seg.index], segments[1:], path, value)
			if err != nil {
				return nil, err
			}
			copied[seg.index] = sub
		}
		m[seg.key] = copied
		return m, nil
	}

	if len(segments) == 1 {
		m[seg.key] = value
		return m, nil
	}

	var next any
	if exists {
		next = child
	}
	sub, err := setSegments(next, segments[1:], path, value)
	if err != nil {
		return nil, err
	}
	m[seg.key] = sub
	return m, nil
}
