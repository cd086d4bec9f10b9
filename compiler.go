package noproto

import (
	"strconv"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
)

// Compiler caches compiled schemas by a caller-chosen name and configures
// the ambient concerns spec.md itself is silent on: a pluggable debug/dump
// encoder and an alternate YAML authoring surface. Mirrors
// kaptinlin-jsonschema/compiler.go's Compiler-plus-functional-options shape;
// NoProto's core compilation (Compile/CompileJSON in schema.go) needs no
// such object, so Compiler exists purely as the caching/config layer on
// top of it.
type Compiler struct {
	mu      sync.RWMutex
	schemas map[string]*CompiledSchema

	// debugEncoder backs DebugJSON; defaults to go-json-experiment/json.
	debugEncoder func(v any) ([]byte, error)
}

// NewCompiler creates a Compiler with its default debug encoder.
func NewCompiler() *Compiler {
	return &Compiler{
		schemas:      make(map[string]*CompiledSchema),
		debugEncoder: func(v any) ([]byte, error) { return json.Marshal(v) },
	}
}

// WithDebugJSON overrides the encoder DebugJSON uses to serialize a schema
// dump, in place of the go-json-experiment/json default.
func (c *Compiler) WithDebugJSON(encoder func(v any) ([]byte, error)) *Compiler {
	c.debugEncoder = encoder
	return c
}

// Compile compiles IDL source and, when name is given, caches the result
// under it for later retrieval via GetSchema.
func (c *Compiler) Compile(source []byte, name ...string) (*CompiledSchema, error) {
	cs, err := Compile(source)
	if err != nil {
		return nil, err
	}
	c.store(cs, name)
	return cs, nil
}

// CompileJSON compiles a JSON-form schema document and, when name is
// given, caches the result.
func (c *Compiler) CompileJSON(source []byte, name ...string) (*CompiledSchema, error) {
	cs, err := CompileJSON(source)
	if err != nil {
		return nil, err
	}
	c.store(cs, name)
	return cs, nil
}

// CompileYAML parses source as YAML with github.com/goccy/go-yaml's AST
// parser, walks the parsed node tree into the same Value shape the JSON
// surface uses, and compiles it through the identical CompileValue path —
// so YAML is a third surface syntax over the one ParsedSchema target,
// alongside IDL and JSON (spec.md §4.2's "two surface syntaxes, one AST").
//
// The AST is walked directly, rather than decoded with yaml.Unmarshal into
// a map[string]any, because Go's native map iteration order is randomized:
// a mapping decoded that way and re-inserted into Value's order-preserving
// OMap would reorder a struct's fields on every run, corrupting the byte
// offsets computeOffsets assigns (spec.md's "hash-based containers must be
// wrapped in order-preserving structures" invariant). Walking
// ast.MappingNode.Values, which already reflects source order, avoids the
// native map entirely.
func (c *Compiler) CompileYAML(source []byte, name ...string) (*CompiledSchema, error) {
	file, err := parser.ParseBytes(source, parser.ParseComments)
	if err != nil {
		return nil, newErr(ErrParseError, "invalid YAML: "+err.Error())
	}
	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return nil, newErr(ErrParseError, "empty YAML document")
	}

	val, err := valueFromYAMLNode(file.Docs[0].Body)
	if err != nil {
		return nil, err
	}
	cs, err := CompileValue(val)
	if err != nil {
		return nil, err
	}
	c.store(cs, name)
	return cs, nil
}

func (c *Compiler) store(cs *CompiledSchema, name []string) {
	if len(name) == 0 || name[0] == "" {
		return
	}
	c.mu.Lock()
	c.schemas[name[0]] = cs
	c.mu.Unlock()
}

// GetSchema retrieves a previously named, cached schema.
func (c *Compiler) GetSchema(name string) (*CompiledSchema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cs, ok := c.schemas[name]
	return cs, ok
}

// SetSchema associates an already-compiled schema with name.
func (c *Compiler) SetSchema(name string, cs *CompiledSchema) *Compiler {
	c.mu.Lock()
	c.schemas[name] = cs
	c.mu.Unlock()
	return c
}

// DebugJSON dumps cs's ParsedSchema arena into a serializable form with the
// configured debug encoder. This is strictly a diagnostic surface — it is
// not the binary schema format (see schema_bytes.go's ToBytes/SchemaFromBytes
// for that) and its shape is not guaranteed stable across versions.
func (c *Compiler) DebugJSON(cs *CompiledSchema) ([]byte, error) {
	type nodeDump struct {
		Addr int    `json:"addr"`
		Kind string `json:"kind"`
		Name string `json:"name,omitempty"`
		ID   *int   `json:"id,omitempty"`
	}
	dump := struct {
		UniqueID uint32     `json:"unique_id"`
		Nodes    []nodeDump `json:"nodes"`
	}{UniqueID: cs.UniqueID}

	for addr := range cs.Schemas {
		s := &cs.Schemas[addr]
		n := nodeDump{Addr: addr, Kind: typeKeywords[s.Kind]}
		if n.Kind == "" {
			n.Kind = "kind#" + strconv.Itoa(int(s.Kind))
		}
		if s.HasName {
			n.Name = cs.Name(addr)
		}
		if s.HasID {
			id := int(s.ID)
			n.ID = &id
		}
		dump.Nodes = append(dump.Nodes, n)
	}

	return c.debugEncoder(dump)
}

// valueFromYAMLNode walks a github.com/goccy/go-yaml/ast node tree into the
// Value shape schema_json.go's compiler consumes, so YAML-form and JSON-form
// schemas share one ingestion path below Compiler.CompileYAML/CompileJSON.
// Mappings are walked via MappingNode.Values, a slice in source order, so a
// struct's fields or an enum's variants keep their declaration order all the
// way into Value.Dict's OMap — unlike decoding through a native Go map.
func valueFromYAMLNode(node ast.Node) (*Value, error) {
	node = unwrapYAMLNode(node)

	switch n := node.(type) {
	case *ast.NullNode:
		return NewNull(), nil
	case *ast.BoolNode:
		return NewBool(n.Value), nil
	case *ast.StringNode:
		return NewString(n.Value), nil
	case *ast.LiteralNode:
		return NewString(n.Value.Value), nil
	case *ast.IntegerNode:
		return NewInteger(yamlIntegerValue(n)), nil
	case *ast.FloatNode:
		return NewFloat(n.Value), nil
	case *ast.InfinityNode:
		return NewFloat(n.Value), nil
	case *ast.NanNode:
		return NewFloat(0), nil
	case *ast.SequenceNode:
		arr := make([]*Value, len(n.Values))
		for i, item := range n.Values {
			v, err := valueFromYAMLNode(item)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return NewArray(arr), nil
	case *ast.MappingValueNode:
		dict := NewDict()
		if err := setYAMLMappingEntry(dict, n); err != nil {
			return nil, err
		}
		return dict, nil
	case *ast.MappingNode:
		dict := NewDict()
		for _, mvn := range n.Values {
			if err := setYAMLMappingEntry(dict, mvn); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, newErr(ErrParseError, "unsupported YAML node type")
	}
}

// setYAMLMappingEntry resolves one key/value pair of a mapping into dict's
// Dict, preserving the order Set is called in.
func setYAMLMappingEntry(dict *Value, mvn *ast.MappingValueNode) error {
	v, err := valueFromYAMLNode(mvn.Value)
	if err != nil {
		return err
	}
	dict.Dict.Set(mvn.Key.String(), v)
	return nil
}

// unwrapYAMLNode strips tag (!!foo) and anchor (&name) wrappers down to the
// underlying scalar/collection node, mirroring
// _examples/MacroPower-x/magicschema/infer.go's unwrapNode.
func unwrapYAMLNode(node ast.Node) ast.Node {
	for {
		switch n := node.(type) {
		case *ast.TagNode:
			node = n.Value
		case *ast.AnchorNode:
			node = n.Value
		default:
			return node
		}
	}
}

// yamlIntegerValue extracts an IntegerNode's decoded value. IntegerNode.Value
// is documented as interface{} and may surface as int64 or uint64 depending
// on sign and magnitude; fall back to reparsing the raw token for any other
// shape rather than guessing.
func yamlIntegerValue(n *ast.IntegerNode) int64 {
	switch x := n.Value.(type) {
	case int64:
		return x
	case uint64:
		return int64(x)
	case int:
		return int64(x)
	default:
		i, _ := strconv.ParseInt(n.Token.Value, 0, 64)
		return i
	}
}

