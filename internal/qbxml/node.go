package qbxml

import (
	"encoding/xml"
	"strings"
)

// Node is an ordered XML element. qbXML is order-sensitive, so requests
// are assembled from nodes appended in schema order and rendered without
// indentation.
type Node struct {
	Tag      string
	Value    string
	Children []*Node
}

// El creates an element node with the given children. Nil children are
// skipped, which lets callers build optional parts inline.
func El(tag string, children ...*Node) *Node {
	n := &Node{Tag: tag}
	return n.Append(children...)
}

// Text creates a leaf element holding escaped character data.
func Text(tag, value string) *Node {
	return &Node{Tag: tag, Value: value}
}

// TextIf creates a leaf element, or nil when the value is empty so the
// element is omitted from the output.
func TextIf(tag, value string) *Node {
	if value == "" {
		return nil
	}
	return Text(tag, value)
}

// Append adds children in order, skipping nils, and returns the node.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Render serializes the node and its subtree to a compact XML string.
func (n *Node) Render() string {
	var b strings.Builder
	n.render(&b)
	return b.String()
}

func (n *Node) render(b *strings.Builder) {
	b.WriteString("<")
	b.WriteString(n.Tag)
	b.WriteString(">")
	if len(n.Children) > 0 {
		for _, c := range n.Children {
			c.render(b)
		}
	} else {
		_ = xml.EscapeText(b, []byte(n.Value))
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteString(">")
}
