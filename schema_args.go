package noproto

import "strconv"

// parseArgsList parses the contents of a top-level `[name: argVal, ...]`
// node into an ArgTree Map, per spec.md §6's `args` grammar production.
func (c *idlCompiler) parseArgsList(items []Node) (ArgTree, error) {
	m := NewOMap[ArgTree]()
	pos := 0
	for pos < len(items) {
		for pos < len(items) && items[pos].Kind == NodeComma {
			pos++
		}
		if pos >= len(items) {
			break
		}
		if items[pos].Kind != NodeToken && items[pos].Kind != NodeString {
			return ArgTree{}, newErr(ErrParseError, "expected argument name")
		}
		key := tokenText(items[pos], c.src)
		if items[pos].Kind == NodeString {
			key = unquoteSpan(items[pos].Span).Text(c.src)
		}
		pos++
		if pos >= len(items) || items[pos].Kind != NodeColon {
			return ArgTree{}, newErr(ErrParseError, "expected ':' after argument name")
		}
		pos++
		val, next, err := c.parseArgValue(items, pos)
		if err != nil {
			return ArgTree{}, err
		}
		m.Set(key, val)
		pos = next
	}
	return ArgTree{Kind: ArgMap, Map: m}, nil
}

// parseArgValue parses one argVal production: a string, number, true,
// false, null, a bracketed list, or a nested braced map.
func (c *idlCompiler) parseArgValue(items []Node, pos int) (ArgTree, int, error) {
	if pos >= len(items) {
		return ArgTree{}, pos, newErr(ErrParseError, "expected argument value")
	}
	n := items[pos]
	switch n.Kind {
	case NodeString:
		return ArgTree{Kind: ArgString, Span: unquoteSpan(n.Span)}, pos + 1, nil
	case NodeNumber:
		return ArgTree{Kind: ArgNumber, Span: n.Span}, pos + 1, nil
	case NodeToken:
		switch tokenText(n, c.src) {
		case "true":
			return ArgTreeBool(true), pos + 1, nil
		case "false":
			return ArgTreeBool(false), pos + 1, nil
		case "null":
			return ArgTreeNull(), pos + 1, nil
		default:
			// A bare identifier (e.g. an unquoted enum-default name) is
			// treated the same as a string argument.
			return ArgTree{Kind: ArgString, Span: n.Span}, pos + 1, nil
		}
	case NodeSquare:
		var list []ArgTree
		ipos := 0
		for ipos < len(n.Items) {
			for ipos < len(n.Items) && n.Items[ipos].Kind == NodeComma {
				ipos++
			}
			if ipos >= len(n.Items) {
				break
			}
			v, next, err := c.parseArgValue(n.Items, ipos)
			if err != nil {
				return ArgTree{}, pos, err
			}
			list = append(list, v)
			ipos = next
		}
		return ArgTree{Kind: ArgList, List: list}, pos + 1, nil
	case NodeCurly:
		m := NewOMap[ArgTree]()
		ipos := 0
		for ipos < len(n.Items) {
			for ipos < len(n.Items) && n.Items[ipos].Kind == NodeComma {
				ipos++
			}
			if ipos >= len(n.Items) {
				break
			}
			if n.Items[ipos].Kind != NodeToken && n.Items[ipos].Kind != NodeString {
				return ArgTree{}, pos, newErr(ErrParseError, "expected map key in argument value")
			}
			key := tokenText(n.Items[ipos], c.src)
			if n.Items[ipos].Kind == NodeString {
				key = unquoteSpan(n.Items[ipos].Span).Text(c.src)
			}
			ipos++
			if ipos >= len(n.Items) || n.Items[ipos].Kind != NodeColon {
				return ArgTree{}, pos, newErr(ErrParseError, "expected ':' in argument map")
			}
			ipos++
			v, next, err := c.parseArgValue(n.Items, ipos)
			if err != nil {
				return ArgTree{}, pos, err
			}
			m.Set(key, v)
			ipos = next
		}
		return ArgTree{Kind: ArgMap, Map: m}, pos + 1, nil
	default:
		return ArgTree{}, pos, newErr(ErrParseError, "unrecognized argument value")
	}
}

// applyArgs fills a primitive ParsedSchema's typed fields (default, min,
// max, casing, max_len, id, exp) from its already-parsed Args tree, per
// spec.md §4.2 step 5. Numeric spans are coerced against the target kind.
func (c *idlCompiler) applyArgs(node *ParsedSchema) error {
	if node.Args.Kind != ArgMap || node.Args.Map == nil {
		return nil
	}
	if idArg, ok := node.Args.Map.Get("id"); ok && idArg.Kind == ArgNumber {
		n, err := parseIntSpan(idArg.Span, c.src)
		if err != nil {
			return err
		}
		node.HasID = true
		node.ID = uint16(n)
	}

	switch node.Kind {
	case KindString, KindChar:
		if d, ok := node.Args.Map.Get("default"); ok && d.Kind == ArgString {
			node.HasDefaultStr = true
			node.DefaultStr = d.Span
		}
		if casing, ok := node.Args.Map.Get("casing"); ok && casing.Kind == ArgString {
			switch casing.Text(c.src) {
			case "upper":
				node.Casing = CasingUpper
			case "lower":
				node.Casing = CasingLower
			}
		}
		if ml, ok := node.Args.Map.Get("max_len"); ok && ml.Kind == ArgNumber {
			n, err := parseIntSpan(ml.Span, c.src)
			if err != nil {
				return err
			}
			node.HasMaxLen = true
			node.MaxLen = uint32(n)
		}
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		if d, ok := node.Args.Map.Get("default"); ok && d.Kind == ArgNumber {
			n, err := parseIntSpan(d.Span, c.src)
			if err != nil {
				return err
			}
			node.HasDefaultInt = true
			node.DefaultInt = n
		}
		if mn, ok := node.Args.Map.Get("min"); ok && mn.Kind == ArgNumber {
			n, err := parseIntSpan(mn.Span, c.src)
			if err != nil {
				return err
			}
			node.HasMin = true
			node.Min = n
		}
		if mx, ok := node.Args.Map.Get("max"); ok && mx.Kind == ArgNumber {
			n, err := parseIntSpan(mx.Span, c.src)
			if err != nil {
				return err
			}
			node.HasMax = true
			node.Max = n
		}
	case KindFloat32, KindFloat64, KindExp32, KindExp64:
		if d, ok := node.Args.Map.Get("default"); ok && d.Kind == ArgNumber {
			f, err := parseFloatSpan(d.Span, c.src)
			if err != nil {
				return err
			}
			node.HasDefaultFloat = true
			node.DefaultFloat = f
		}
		if mn, ok := node.Args.Map.Get("min"); ok && mn.Kind == ArgNumber {
			f, err := parseFloatSpan(mn.Span, c.src)
			if err != nil {
				return err
			}
			node.HasMinFloat = true
			node.MinFloat = f
		}
		if mx, ok := node.Args.Map.Get("max"); ok && mx.Kind == ArgNumber {
			f, err := parseFloatSpan(mx.Span, c.src)
			if err != nil {
				return err
			}
			node.HasMaxFloat = true
			node.MaxFloat = f
		}
		if e, ok := node.Args.Map.Get("exp"); ok && e.Kind == ArgNumber {
			n, err := parseIntSpan(e.Span, c.src)
			if err != nil {
				return err
			}
			node.Exp = uint8(n)
		}
	case KindBool:
		if d, ok := node.Args.Map.Get("default"); ok {
			switch d.Kind {
			case ArgTrue:
				node.HasDefaultBool, node.DefaultBool = true, true
			case ArgFalse:
				node.HasDefaultBool, node.DefaultBool = true, false
			}
		}
	}
	return nil
}

// unquoteSpan strips the surrounding double quotes a NodeString span always
// carries (the lexer's lexString includes them, see lexer.go), so a quoted
// IDL string argument's text matches the literal its spelling denotes — the
// same bare text JSON-form ingestion already gets for free from Value's
// decoded Str field. Does not decode backslash escapes.
func unquoteSpan(s Span) Span {
	if s.End-s.Start >= 2 {
		return Span{s.Start + 1, s.End - 1}
	}
	return s
}

func parseIntSpan(s Span, src []byte) (int64, error) {
	text := s.Text(src)
	var neg bool
	if len(text) > 0 && text[0] == '-' {
		neg = true
		text = text[1:]
	}
	var n int64
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, newErr(ErrParseError, "invalid integer argument")
		}
		n = n*10 + int64(text[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

func parseFloatSpan(s Span, src []byte) (float64, error) {
	text := s.Text(src)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, newErr(ErrParseError, "invalid float argument")
	}
	return v, nil
}
