package noproto

// compileJSONTop ingests a JSON-form schema document: either a single
// dictionary describing one top-level type, or an array of such
// dictionaries describing several, per spec.md §4.2's "two surface
// syntaxes, one AST" note — both paths populate the same ParsedSchema
// arena that the IDL path does.
func (c *idlCompiler) compileJSONTop(val *Value) error {
	if arr, ok := val.AsArray(); ok {
		for _, item := range arr {
			if _, err := c.compileJSONType(item, true); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := c.compileJSONType(val, true)
	return err
}

// compileJSONType decodes one JSON dictionary into a ParsedSchema node,
// dispatching on its "type" key. When topLevel is true, "name" and "id"
// keys are consumed and the node is registered in both indices.
//
// Every mutation below re-indexes c.schemas[addr] rather than caching a
// *ParsedSchema across a nested compileJSONType call: a nested call can
// append to c.schemas and reallocate its backing array, which would
// silently invalidate a cached pointer taken before the call.
func (c *idlCompiler) compileJSONType(val *Value, topLevel bool) (int, error) {
	typeName, ok := val.Get("type").AsString()
	if !ok {
		return 0, newErr(ErrParseError, "JSON-form schema node is missing its \"type\" key")
	}

	addr := c.addNode(ParsedSchema{})
	if topLevel {
		c.currentTop = addr
	}

	if topLevel {
		if name, ok := val.Get("name").AsString(); ok {
			c.schemas[addr].HasName = true
			c.schemas[addr].Name = c.internString(name)
		}
		if idv, ok := val.Get("id").AsInt(); ok {
			c.schemas[addr].HasID = true
			c.schemas[addr].ID = uint16(idv)
		}
	}

	switch typeName {
	case "impl":
		targetName, _ := val.Get("target").AsString()
		target, ok := c.nameIndex.Get(targetName)
		if !ok {
			return 0, newErrAt(ErrUnknownType, targetName, "impl block targets an undeclared type")
		}
		c.schemas[addr].Kind = KindImpl
		c.schemas[addr].TargetAddr = target.DataAddr
		if methods, ok := val.Get("methods").AsArray(); ok {
			for _, m := range methods {
				name, _ := m.Get("name").AsString()
				var argAddrs []int
				if margs, ok := m.Get("args").AsArray(); ok {
					for _, a := range margs {
						aAddr, err := c.compileJSONType(a, false)
						if err != nil {
							return 0, err
						}
						argAddrs = append(argAddrs, aAddr)
					}
				}
				var retAddr int
				if ret := m.Get("returns"); ret != nil {
					r, err := c.compileJSONType(ret, false)
					if err != nil {
						return 0, err
					}
					retAddr = r
				}
				methodAddr := c.addNode(ParsedSchema{Kind: KindMethod, MethodArgs: argAddrs, MethodReturns: retAddr})
				c.schemas[addr].Children = append(c.schemas[addr].Children, methodAddr)
				c.schemas[addr].ChildrenName = append(c.schemas[addr].ChildrenName, name)
			}
		}
		target.HasMethods = true
		target.MethodsAddr = addr
		c.nameIndex.Set(targetName, target)
		if int(c.schemas[target.DataAddr].ID) < len(c.idIndex) {
			c.idIndex[c.schemas[target.DataAddr].ID] = target
		}
	case "info":
		c.schemas[addr].Kind = KindInfo
		if id, ok := val.Get("id").AsString(); ok {
			idSpan := c.internString(id)
			m := NewOMap[ArgTree]()
			m.Set("id", ArgTree{Kind: ArgString, Span: idSpan})
			c.schemas[addr].Args = ArgTree{Kind: ArgMap, Map: m}
		}
		if version, ok := val.Get("version").AsString(); ok {
			versionSpan := c.internString(version)
			if c.schemas[addr].Args.Kind != ArgMap {
				c.schemas[addr].Args = ArgTree{Kind: ArgMap, Map: NewOMap[ArgTree]()}
			}
			c.schemas[addr].Args.Map.Set("version", ArgTree{Kind: ArgString, Span: versionSpan})
		}
	case "portal":
		path, _ := val.Get("path").AsString()
		c.schemas[addr].PortalPending = true
		c.schemas[addr].PortalPath = path
		c.schemas[addr].Kind = KindThis
	case "self":
		c.schemas[addr].Kind = KindThis
		c.schemas[addr].TargetAddr = c.currentTop
	case "struct":
		c.schemas[addr].Kind = KindStruct
		if fields, ok := val.Get("fields").AsDict(); ok {
			for _, pair := range fields.Iter() {
				childAddr, err := c.compileJSONType(pair.Value, false)
				if err != nil {
					return 0, err
				}
				c.schemas[addr].Children = append(c.schemas[addr].Children, childAddr)
				c.schemas[addr].ChildrenName = append(c.schemas[addr].ChildrenName, pair.Key)
			}
		}
	case "enum", "simple_enum":
		c.schemas[addr].Kind = KindEnum
		if choices, ok := val.Get("choices").AsArray(); ok {
			for _, choice := range choices {
				name, _ := choice.Get("name").AsString()
				var childAddr int
				if payload := choice.Get("of"); payload != nil {
					a, err := c.compileJSONType(payload, false)
					if err != nil {
						return 0, err
					}
					childAddr = a
				} else {
					childAddr = c.addNode(ParsedSchema{Kind: KindNone})
				}
				c.schemas[addr].Children = append(c.schemas[addr].Children, childAddr)
				c.schemas[addr].ChildrenName = append(c.schemas[addr].ChildrenName, name)
			}
		}
		if def, ok := val.Get("default").AsString(); ok {
			span := c.internString(def)
			m := NewOMap[ArgTree]()
			m.Set("default", ArgTree{Kind: ArgString, Span: span})
			c.schemas[addr].Args = ArgTree{Kind: ArgMap, Map: m}
		}
	case "vec", "list", "box", "option":
		kind := jsonContainerKind(typeName)
		c.schemas[addr].Kind = kind
		if of := val.Get("of"); of != nil {
			ofAddr, err := c.compileJSONType(of, false)
			if err != nil {
				return 0, err
			}
			c.schemas[addr].HasOf = true
			c.schemas[addr].Of = ofAddr
		}
		if ml, ok := val.Get("max_len").AsInt(); ok {
			c.schemas[addr].HasMaxLen = true
			c.schemas[addr].MaxLen = uint32(ml)
		}
	case "map":
		c.schemas[addr].Kind = KindMap
		if of := val.Get("value"); of != nil {
			ofAddr, err := c.compileJSONType(of, false)
			if err != nil {
				return 0, err
			}
			c.schemas[addr].HasOf = true
			c.schemas[addr].Of = ofAddr
		}
	case "result":
		c.schemas[addr].Kind = KindResult
		if ok := val.Get("ok"); ok != nil {
			okAddr, err := c.compileJSONType(ok, false)
			if err != nil {
				return 0, err
			}
			c.schemas[addr].Ok = okAddr
		}
		if errv := val.Get("err"); errv != nil {
			errAddr, err := c.compileJSONType(errv, false)
			if err != nil {
				return 0, err
			}
			c.schemas[addr].Err = errAddr
		}
	case "tuple":
		c.schemas[addr].Kind = KindTuple
		if values, ok := val.Get("values").AsArray(); ok {
			for _, v := range values {
				childAddr, err := c.compileJSONType(v, false)
				if err != nil {
					return 0, err
				}
				c.schemas[addr].Children = append(c.schemas[addr].Children, childAddr)
			}
		}
	case "array":
		c.schemas[addr].Kind = KindArray
		if of := val.Get("of"); of != nil {
			ofAddr, err := c.compileJSONType(of, false)
			if err != nil {
				return 0, err
			}
			c.schemas[addr].HasOf = true
			c.schemas[addr].Of = ofAddr
		}
		if l, ok := val.Get("len").AsInt(); ok {
			c.schemas[addr].ArrayLen = uint32(l)
		}
	default:
		if kind, ok := typeNames[typeName]; ok {
			c.schemas[addr].Kind = kind
			if err := c.applyJSONArgs(addr, val); err != nil {
				return 0, err
			}
		} else if target, ok := c.nameIndex.Get(typeName); ok {
			c.schemas[addr].Kind = KindCustom
			c.schemas[addr].TargetAddr = target.DataAddr
		} else {
			return 0, newErrAt(ErrUnknownType, typeName, "unknown type in JSON-form schema")
		}
	}

	if topLevel {
		if err := c.registerJSONTopLevel(addr); err != nil {
			return 0, err
		}
	}
	return addr, nil
}

func jsonContainerKind(name string) TypeKind {
	switch name {
	case "vec":
		return KindVec
	case "list":
		return KindList
	case "box":
		return KindBox
	case "option":
		return KindOption
	default:
		return KindAny
	}
}

// applyJSONArgs fills a primitive node's typed fields directly from JSON
// keys, mirroring applyArgs's IDL-arg-tree equivalent. val's accessor calls
// never append to c.schemas, so indexing by addr throughout is purely a
// style match with compileJSONType, not a correctness requirement here.
func (c *idlCompiler) applyJSONArgs(addr int, val *Value) error {
	node := &c.schemas[addr]
	switch node.Kind {
	case KindString, KindChar:
		if d, ok := val.Get("default").AsString(); ok {
			node.HasDefaultStr = true
			node.DefaultStr = c.internString(d)
		}
		if casing, ok := val.Get("casing").AsString(); ok {
			switch casing {
			case "upper":
				node.Casing = CasingUpper
			case "lower":
				node.Casing = CasingLower
			}
		}
		if ml, ok := val.Get("max_len").AsInt(); ok {
			node.HasMaxLen = true
			node.MaxLen = uint32(ml)
		}
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		if d, ok := val.Get("default").AsInt(); ok {
			node.HasDefaultInt, node.DefaultInt = true, d
		}
		if mn, ok := val.Get("min").AsInt(); ok {
			node.HasMin, node.Min = true, mn
		}
		if mx, ok := val.Get("max").AsInt(); ok {
			node.HasMax, node.Max = true, mx
		}
	case KindFloat32, KindFloat64, KindExp32, KindExp64:
		if d, ok := val.Get("default").AsFloat(); ok {
			node.HasDefaultFloat, node.DefaultFloat = true, d
		}
		if mn, ok := val.Get("min").AsFloat(); ok {
			node.HasMinFloat, node.MinFloat = true, mn
		}
		if mx, ok := val.Get("max").AsFloat(); ok {
			node.HasMaxFloat, node.MaxFloat = true, mx
		}
		if e, ok := val.Get("exp").AsInt(); ok {
			node.Exp = uint8(e)
		}
	case KindBool:
		if b, ok := val.Get("default").AsBool(); ok {
			node.HasDefaultBool, node.DefaultBool = true, b
		}
	}
	return nil
}

func (c *idlCompiler) registerJSONTopLevel(addr int) error {
	node := c.schemas[addr]
	if node.Kind == KindImpl {
		return nil
	}
	if node.Kind != KindInfo {
		if !node.HasName {
			return newErr(ErrMissingName, "top-level type is missing a name")
		}
		if !node.HasID {
			return newErr(ErrMissingID, "top-level type is missing an id")
		}
	}
	if node.HasName {
		idx := SchemaIndex{DataAddr: addr}
		c.nameIndex.Set(node.Name.Text(c.src), idx)
		if node.HasID {
			id := int(node.ID)
			for len(c.idIndex) <= id {
				c.idIndex = append(c.idIndex, SchemaIndex{})
			}
			c.idIndex[id] = idx
			if node.ID > c.maxID {
				c.maxID = node.ID
			}
		}
	}
	return nil
}
