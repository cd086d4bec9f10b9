package noproto

import "strconv"

// resolvePortals resolves every pending Portal node left by JSON-form
// schema ingestion (schema_json.go's {"type":"portal","path":"..."}
// handling) into a concrete This{parent_addr} node, per spec.md §4.2's
// "Portal resolution" pass and DESIGN.md's Open Question O2. IDL-form
// `self` references are resolved immediately during parsing
// (schema_idl.go) and never produce a pending node; this pass exists for
// the JSON surface, which can name an arbitrary dotted path rather than
// only the immediately enclosing type.
func resolvePortals(cs *CompiledSchema) error {
	for addr := range cs.Schemas {
		s := &cs.Schemas[addr]
		if !s.PortalPending {
			continue
		}
		resolved, err := resolvePortalPath(cs, s.PortalPath)
		if err != nil {
			return err
		}
		s.Kind = KindThis
		s.TargetAddr = resolved
		s.PortalPending = false
		s.PortalPath = ""
	}
	return nil
}

// resolvePortalPath walks a dotted path ("Struct.fields", "List.of",
// "Map.value", "Tuple.values") against the root schema's top-level types,
// per spec.md §4.2. The first path segment names a top-level type; each
// subsequent segment navigates one level into that node's children (by
// child name or numeric index for Struct/Tuple/Enum/SimpleEnum, or the
// sole child for Vec/List/Map/Box/Option/Array/SmallArray).
func resolvePortalPath(cs *CompiledSchema, path string) (int, error) {
	if path == "" {
		return 0, newErr(ErrPortalUnresolved, "empty portal path")
	}
	segs := splitPath(path)
	idx, ok := cs.NameIndex.Get(segs[0])
	if !ok {
		return 0, newErrAt(ErrPortalUnresolved, path, "portal path root does not name a declared type")
	}
	addr := idx.DataAddr
	for _, seg := range segs[1:] {
		s := &cs.Schemas[addr]
		switch s.Kind {
		case KindStruct, KindTuple, KindEnum, KindSimpleEnum:
			if n, err := strconv.Atoi(seg); err == nil {
				if n < 0 || n >= len(s.Children) {
					return 0, newErrAt(ErrPortalUnresolved, path, "portal path index out of range")
				}
				addr = s.Children[n]
				continue
			}
			found := -1
			for i, name := range s.ChildrenName {
				if name == seg {
					found = i
					break
				}
			}
			if found == -1 {
				return 0, newErrAt(ErrPortalUnresolved, path, "portal path segment not found")
			}
			addr = s.Children[found]
		case KindVec, KindList, KindMap, KindBox, KindOption, KindArray, KindSmallArray:
			if !s.HasOf {
				return 0, newErrAt(ErrPortalUnresolved, path, "portal path descends into an empty container")
			}
			addr = s.Of
		default:
			return 0, newErrAt(ErrPortalUnresolved, path, "portal path descends into a non-container type")
		}
	}
	return addr, nil
}

func splitPath(path string) []string {
	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}
