// Package posxml parses the XML and SOAP response shapes Turkish virtual POS
// gateways return. Bodies frequently arrive with junk before the XML
// declaration, namespace prefixes that vary by gateway version and result
// nodes echoed more than once, so parsing is deliberately tolerant.
package posxml

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"
)

// Node is a generic DOM node. Gateways disagree on document shape enough that
// static structs per response type would multiply without bound.
type Node struct {
	XMLName  xml.Name
	Children []Node `xml:",any"`
	Text     string `xml:",chardata"`
}

var prefixRe = regexp.MustCompile(`(</?)[A-Za-z0-9_]+:`)

// StripPreamble drops everything before the first '<', including UTF-8 BOMs
// and HTTP header remnants some gateways leak into the body.
func StripPreamble(raw []byte) []byte {
	idx := bytes.IndexByte(raw, '<')
	if idx < 0 {
		return nil
	}
	return raw[idx:]
}

// StripNamespacePrefixes removes namespace prefixes from element tags so
// lookups work by local name regardless of the prefix the gateway chose.
func StripNamespacePrefixes(raw []byte) []byte {
	return prefixRe.ReplaceAll(raw, []byte("$1"))
}

// Parse builds a DOM from a raw gateway body, stripping preamble and
// namespace prefixes first.
func Parse(raw []byte) (*Node, error) {
	cleaned := StripNamespacePrefixes(StripPreamble(raw))
	if len(cleaned) == 0 {
		return nil, xml.UnmarshalError("posxml: no xml content")
	}
	var root Node
	if err := xml.Unmarshal(cleaned, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// Find returns the first descendant (depth-first, document order) whose local
// name equals name, or nil.
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	if n.XMLName.Local == name {
		return n
	}
	for i := range n.Children {
		if found := n.Children[i].Find(name); found != nil {
			return found
		}
	}
	return nil
}

// LastMatching returns the last descendant in document order whose local name
// contains substr. When a gateway echoes intermediate result nodes, the last
// one is the authoritative outcome.
func (n *Node) LastMatching(substr string) *Node {
	if n == nil {
		return nil
	}
	var last *Node
	n.walk(func(node *Node) {
		if strings.Contains(node.XMLName.Local, substr) {
			last = node
		}
	})
	return last
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for i := range n.Children {
		n.Children[i].walk(fn)
	}
}

// ChildText returns the trimmed text of the first descendant named name, or
// empty when absent.
func (n *Node) ChildText(name string) string {
	found := n.Find(name)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.Text)
}

// TolerantBool interprets the boolean representations gateways actually emit.
func TolerantBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	default:
		return false
	}
}
