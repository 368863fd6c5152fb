// Package codec converts workflow graphs to and from their textual
// interchange format.
//
// The format is an indentation-scoped YAML document with top-level keys for
// workflow metadata, a blocks mapping keyed by block id, and a connections
// list:
//
//	version: "1.0"
//	name: Example
//	blocks:
//	  fetch:
//	    type: action
//	    config:
//	      url: https://example.com
//	    position:
//	      x: 0
//	      y: 100
//	connections:
//	  - from: start.out
//	    to: fetch.in
//
// Serialization is canonical: blocks are ordered by id, mapping keys have a
// fixed order, and connections are sorted, so serializing a parsed document
// is byte-for-byte stable. Unknown fields on a block survive a round trip
// verbatim; documents with an unrecognized schema version are rejected
// rather than guessed at.
package codec

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/flowsmith/flowsmith/pkg/workflow"
)

// SchemaVersion is the interchange schema version this codec reads and
// writes. Documents declaring any other version are rejected with
// [UnsupportedVersionError].
const SchemaVersion = "1.0"

// Default port names used when a connection endpoint omits the port suffix.
const (
	defaultOutputPort = "out"
	defaultInputPort  = "in"
)

var yamlLineRe = regexp.MustCompile(`line (\d+):\s*(.*)`)

// Parse decodes workflow text into a graph.
//
// Malformed YAML yields a [*SyntaxError] with the offending line; missing
// or wrongly shaped required fields yield a [*SchemaError]; an unknown
// schema version yields a [*UnsupportedVersionError]. Structural violations
// (duplicate ids, dangling endpoints, incompatible ports, duplicate edges)
// surface the workflow package's sentinel errors wrapped with the block or
// connection that caused them.
func Parse(text string) (*workflow.Graph, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, syntaxError(err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &SchemaError{Field: "version", Message: "document is empty"}
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &SyntaxError{Line: doc.Line, Message: "top-level value must be a mapping"}
	}

	var (
		version, name  string
		versionSeen    bool
		nameSeen       bool
		revision       int
		blocksNode     *yaml.Node
		connectionNode *yaml.Node
	)
	for i := 0; i < len(doc.Content); i += 2 {
		key, val := doc.Content[i], doc.Content[i+1]
		switch key.Value {
		case "version":
			version, versionSeen = val.Value, true
		case "name":
			name, nameSeen = val.Value, true
		case "revision":
			n, err := strconv.Atoi(val.Value)
			if err != nil {
				return nil, &SchemaError{Field: "revision", Message: "must be an integer"}
			}
			revision = n
		case "blocks":
			blocksNode = val
		case "connections":
			connectionNode = val
		}
	}

	if !versionSeen {
		return nil, &SchemaError{Field: "version", Message: "missing required field"}
	}
	if version != SchemaVersion {
		return nil, &UnsupportedVersionError{Version: version}
	}
	if !nameSeen {
		return nil, &SchemaError{Field: "name", Message: "missing required field"}
	}

	g := workflow.New(name)
	g.SetMeta(workflow.Metadata{Name: name, Version: revision})

	if blocksNode != nil {
		if blocksNode.Kind != yaml.MappingNode {
			return nil, &SchemaError{Field: "blocks", Message: "must be a mapping keyed by block id"}
		}
		for i := 0; i < len(blocksNode.Content); i += 2 {
			id := blocksNode.Content[i].Value
			b, err := parseBlock(id, blocksNode.Content[i+1])
			if err != nil {
				return nil, err
			}
			if err := g.AddBlock(b); err != nil {
				return nil, fmt.Errorf("block %s: %w", id, err)
			}
		}
	}

	if connectionNode != nil {
		if connectionNode.Kind != yaml.SequenceNode {
			return nil, &SchemaError{Field: "connections", Message: "must be a list"}
		}
		for i, item := range connectionNode.Content {
			e, err := parseConnection(i, item)
			if err != nil {
				return nil, err
			}
			if err := g.AddEdge(e); err != nil {
				return nil, fmt.Errorf("connection %s.%s -> %s.%s: %w", e.From, e.FromPort, e.To, e.ToPort, err)
			}
		}
	}

	return g, nil
}

// ParseFile reads and parses the workflow document at path.
func ParseFile(path string) (*workflow.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

func parseBlock(id string, n *yaml.Node) (workflow.Block, error) {
	field := "blocks." + id
	if n.Kind != yaml.MappingNode {
		return workflow.Block{}, &SchemaError{Field: field, Message: "block entry must be a mapping"}
	}

	b := workflow.Block{ID: id}
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "type":
			b.Type = val.Value
		case "config":
			cfg, err := decodeValue(val)
			if err != nil {
				return workflow.Block{}, &SchemaError{Field: field + ".config", Message: err.Error()}
			}
			if cfg.Kind != workflow.KindMap {
				return workflow.Block{}, &SchemaError{Field: field + ".config", Message: "must be a mapping"}
			}
			b.Config = cfg.Map
		case "position":
			pos, err := parsePosition(field, val)
			if err != nil {
				return workflow.Block{}, err
			}
			b.Position = pos
		case "parent":
			b.Parent = val.Value
		case "ports":
			ports, err := parsePorts(field, val)
			if err != nil {
				return workflow.Block{}, err
			}
			b.Ports = ports
		default:
			// Unknown fields ride along untouched so newer documents
			// survive a round trip through an older tool.
			v, err := decodeValue(val)
			if err != nil {
				return workflow.Block{}, &SchemaError{Field: field + "." + key.Value, Message: err.Error()}
			}
			if b.Extra == nil {
				b.Extra = make(map[string]workflow.Value)
			}
			b.Extra[key.Value] = v
		}
	}

	if b.Type == "" {
		return workflow.Block{}, &SchemaError{Field: field + ".type", Message: "missing required field"}
	}
	return b, nil
}

func parsePosition(field string, n *yaml.Node) (*workflow.Position, error) {
	if n.Kind != yaml.MappingNode {
		return nil, &SchemaError{Field: field + ".position", Message: "must be a mapping with x and y"}
	}
	pos := &workflow.Position{}
	seen := map[string]bool{}
	for i := 0; i < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		f, err := strconv.ParseFloat(val.Value, 64)
		if err != nil {
			return nil, &SchemaError{Field: field + ".position." + key.Value, Message: "must be a number"}
		}
		switch key.Value {
		case "x":
			pos.X = f
		case "y":
			pos.Y = f
		default:
			continue
		}
		seen[key.Value] = true
	}
	if !seen["x"] || !seen["y"] {
		return nil, &SchemaError{Field: field + ".position", Message: "must include both x and y"}
	}
	return pos, nil
}

func parsePorts(field string, n *yaml.Node) ([]workflow.Port, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, &SchemaError{Field: field + ".ports", Message: "must be a list"}
	}
	var ports []workflow.Port
	for idx, item := range n.Content {
		pf := fmt.Sprintf("%s.ports[%d]", field, idx)
		if item.Kind != yaml.MappingNode {
			return nil, &SchemaError{Field: pf, Message: "must be a mapping"}
		}
		var p workflow.Port
		for i := 0; i < len(item.Content); i += 2 {
			key, val := item.Content[i], item.Content[i+1]
			switch key.Value {
			case "name":
				p.Name = val.Value
			case "direction":
				switch val.Value {
				case "input":
					p.Direction = workflow.Input
				case "output":
					p.Direction = workflow.Output
				default:
					return nil, &SchemaError{Field: pf + ".direction", Message: "must be input or output"}
				}
			case "kind":
				p.DataKind = val.Value
			}
		}
		if p.Name == "" {
			return nil, &SchemaError{Field: pf + ".name", Message: "missing required field"}
		}
		ports = append(ports, p)
	}
	return ports, nil
}

func parseConnection(idx int, n *yaml.Node) (workflow.Edge, error) {
	field := fmt.Sprintf("connections[%d]", idx)
	if n.Kind != yaml.MappingNode {
		return workflow.Edge{}, &SchemaError{Field: field, Message: "must be a mapping with from and to"}
	}
	var from, to string
	for i := 0; i < len(n.Content); i += 2 {
		switch n.Content[i].Value {
		case "from":
			from = n.Content[i+1].Value
		case "to":
			to = n.Content[i+1].Value
		}
	}
	if from == "" {
		return workflow.Edge{}, &SchemaError{Field: field + ".from", Message: "missing required field"}
	}
	if to == "" {
		return workflow.Edge{}, &SchemaError{Field: field + ".to", Message: "missing required field"}
	}

	e := workflow.Edge{}
	e.From, e.FromPort = splitEndpoint(from, defaultOutputPort)
	e.To, e.ToPort = splitEndpoint(to, defaultInputPort)
	return e, nil
}

// splitEndpoint splits "blockId.port" at the last dot. An endpoint without
// a port suffix gets the direction's default port name.
func splitEndpoint(s, defaultPort string) (string, string) {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, defaultPort
}

func decodeValue(n *yaml.Node) (workflow.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return decodeValue(n.Alias)
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool":
			b, err := strconv.ParseBool(n.Value)
			if err != nil {
				return workflow.Value{}, fmt.Errorf("invalid bool %q", n.Value)
			}
			return workflow.Bool(b), nil
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(n.Value, 64)
			if err != nil {
				return workflow.Value{}, fmt.Errorf("invalid number %q", n.Value)
			}
			return workflow.Number(f), nil
		default:
			return workflow.String(n.Value), nil
		}
	case yaml.SequenceNode:
		elems := make([]workflow.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := decodeValue(c)
			if err != nil {
				return workflow.Value{}, err
			}
			elems[i] = v
		}
		return workflow.List(elems...), nil
	case yaml.MappingNode:
		m := make(map[string]workflow.Value, len(n.Content)/2)
		for i := 0; i < len(n.Content); i += 2 {
			v, err := decodeValue(n.Content[i+1])
			if err != nil {
				return workflow.Value{}, err
			}
			m[n.Content[i].Value] = v
		}
		return workflow.Map(m), nil
	}
	return workflow.Value{}, fmt.Errorf("unsupported value node")
}

func syntaxError(err error) error {
	msg := err.Error()
	if m := yamlLineRe.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &SyntaxError{Line: line, Message: m[2]}
	}
	return &SyntaxError{Message: strings.TrimPrefix(msg, "yaml: ")}
}

// Serialize encodes a graph as canonical workflow text.
//
// Blocks appear sorted by id, block keys in a fixed order with config keys
// and extras sorted, and connections sorted by endpoint. The output of
// Serialize parses back to an equal graph, and serializing that parse
// reproduces the text byte for byte.
func Serialize(g *workflow.Graph) (string, error) {
	doc := mappingNode()
	appendKV(doc, "version", strNode(SchemaVersion))
	appendKV(doc, "name", strNode(g.Meta().Name))
	if v := g.Meta().Version; v != 0 {
		appendKV(doc, "revision", intNode(v))
	}

	blocks := mappingNode()
	for _, b := range g.Blocks() {
		appendKV(blocks, b.ID, blockNode(b))
	}
	appendKV(doc, "blocks", blocks)

	if g.EdgeCount() > 0 {
		conns := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range g.SortedEdges() {
			c := mappingNode()
			appendKV(c, "from", strNode(e.From+"."+e.FromPort))
			appendKV(c, "to", strNode(e.To+"."+e.ToPort))
			conns.Content = append(conns.Content, c)
		}
		appendKV(doc, "connections", conns)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return string(out), nil
}

// WriteFile serializes the graph to a file with 0644 permissions.
func WriteFile(g *workflow.Graph, path string) error {
	text, err := Serialize(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func blockNode(b *workflow.Block) *yaml.Node {
	n := mappingNode()
	appendKV(n, "type", strNode(b.Type))

	if len(b.Config) > 0 {
		appendKV(n, "config", valueNode(workflow.Map(b.Config)))
	}
	if b.Position != nil {
		pos := mappingNode()
		appendKV(pos, "x", floatNode(b.Position.X))
		appendKV(pos, "y", floatNode(b.Position.Y))
		appendKV(n, "position", pos)
	}
	if b.Parent != "" {
		appendKV(n, "parent", strNode(b.Parent))
	}
	if len(b.Ports) > 0 {
		ports := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, p := range b.Ports {
			pn := mappingNode()
			appendKV(pn, "name", strNode(p.Name))
			dir := "input"
			if p.Direction == workflow.Output {
				dir = "output"
			}
			appendKV(pn, "direction", strNode(dir))
			if p.DataKind != "" {
				appendKV(pn, "kind", strNode(p.DataKind))
			}
			ports.Content = append(ports.Content, pn)
		}
		appendKV(n, "ports", ports)
	}
	for _, k := range slices.Sorted(maps.Keys(b.Extra)) {
		appendKV(n, k, valueNode(b.Extra[k]))
	}
	return n
}

func valueNode(v workflow.Value) *yaml.Node {
	switch v.Kind {
	case workflow.KindString:
		return strNode(v.Str)
	case workflow.KindNumber:
		return floatNode(v.Num)
	case workflow.KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool)}
	case workflow.KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.List {
			n.Content = append(n.Content, valueNode(e))
		}
		return n
	case workflow.KindMap:
		n := mappingNode()
		for _, k := range slices.Sorted(maps.Keys(v.Map)) {
			appendKV(n, k, valueNode(v.Map[k]))
		}
		return n
	}
	return strNode("")
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func intNode(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

func floatNode(f float64) *yaml.Node {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	tag := "!!float"
	if !strings.ContainsAny(s, ".eE") {
		tag = "!!int"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s}
}

func appendKV(m *yaml.Node, key string, val *yaml.Node) {
	m.Content = append(m.Content, strNode(key), val)
}
