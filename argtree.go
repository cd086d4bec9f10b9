package noproto

import (
	"strconv"
	"strings"
)

// ArgKind discriminates the ArgTree variants from spec.md §3: a config tree
// attached to a ParsedSchema node (generic bindings, struct field options,
// enum variant tags, ...) that is queryable by a dotted path such as
// "meta.colors.0".
type ArgKind uint8

const (
	ArgNull ArgKind = iota
	ArgTrue
	ArgFalse
	ArgString
	ArgNumber
	ArgMap
	ArgList
)

// ArgTree is an immutable node in the config tree. String and Number leaves
// carry a Span into the originating source rather than an owned copy, in
// keeping with the rest of the schema arena's non-owning convention.
type ArgTree struct {
	Kind ArgKind
	Span Span
	Map  *OMap[ArgTree]
	List []ArgTree
}

func ArgTreeNull() ArgTree  { return ArgTree{Kind: ArgNull} }
func ArgTreeBool(b bool) ArgTree {
	if b {
		return ArgTree{Kind: ArgTrue}
	}
	return ArgTree{Kind: ArgFalse}
}

// Text resolves a String or Number leaf against src.
func (a ArgTree) Text(src []byte) string {
	return a.Span.Text(src)
}

// Query walks a dotted path ("meta.colors.0") through nested Map/List nodes,
// reporting (zero ArgTree, false) as soon as a segment cannot be resolved:
// a Map segment looks up the next path component as a key, a List segment
// parses it as a base-10 index.
func (a ArgTree) Query(path string) (ArgTree, bool) {
	if path == "" {
		return a, true
	}
	segs := strings.Split(path, ".")
	cur := a
	for _, seg := range segs {
		switch cur.Kind {
		case ArgMap:
			next, ok := cur.Map.Get(seg)
			if !ok {
				return ArgTree{}, false
			}
			cur = next
		case ArgList:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur.List) {
				return ArgTree{}, false
			}
			cur = cur.List[idx]
		default:
			return ArgTree{}, false
		}
	}
	return cur, true
}

// ArgTree byte tags, per spec.md §6's arg-tree byte format. The tagged
// encoding mirrors BufferType's: a single leading tag byte, then a
// type-specific payload of either nothing (null/true/false), a reference
// into the schema's shared string section (string/number), or a recursively
// encoded child count (map/list).
const (
	argByteNull   byte = 0
	argByteTrue   byte = 1
	argByteFalse  byte = 2
	argByteString byte = 3
	argByteNumber byte = 4
	argByteMap    byte = 5
	argByteList   byte = 6
)
