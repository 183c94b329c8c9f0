// Package ast is the expression tree built while converting schemas. A tree
// holds literal code and symbolic references; names are only substituted
// when the tree is rendered, once every schema has been named.
package ast

import (
	"strings"
)

// Node is an expression tree node.
type Node interface {
	node()
}

// Code is literal source text.
type Code string

// Concat is a sequence of nodes rendered back to back.
type Concat []Node

// Ref points at a converted schema by content hash.
type Ref struct {
	Hash string
}

// Circular points at a schema that is still being converted higher up the
// current path.
type Circular struct {
	Ref string
}

// Lazy defers evaluation of Inner: `z.lazy(() => Inner)`.
type Lazy struct {
	Inner Node
}

// TypeRef points at a named static type.
type TypeRef struct {
	Ref string
}

func (Code) node()     {}
func (Concat) node()   {}
func (Ref) node()      {}
func (Circular) node() {}
func (Lazy) node()     {}
func (TypeRef) node()  {}

// Seq concatenates parts, flattening nested sequences and merging adjacent code.
func Seq(parts ...Node) Node {
	var out Concat
	for _, p := range parts {
		out = appendNode(out, p)
	}
	switch len(out) {
	case 0:
		return Code("")
	case 1:
		return out[0]
	}
	return out
}

func appendNode(out Concat, n Node) Concat {
	switch v := n.(type) {
	case nil:
		return out
	case Code:
		if v == "" {
			return out
		}
		if k := len(out); k > 0 {
			if prev, ok := out[k-1].(Code); ok {
				out[k-1] = prev + v
				return out
			}
		}
		return append(out, v)
	case Concat:
		for _, child := range v {
			out = appendNode(out, child)
		}
		return out
	}
	return append(out, n)
}

// Join concatenates nodes separated by sep.
func Join(nodes []Node, sep string) Node {
	parts := make([]Node, 0, 2*len(nodes))
	for i, n := range nodes {
		if i > 0 {
			parts = append(parts, Code(sep))
		}
		parts = append(parts, n)
	}
	return Seq(parts...)
}

// Walk calls fn for n and every node below it, depth first. Returning false
// skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case Concat:
		for _, child := range v {
			Walk(child, fn)
		}
	case Lazy:
		Walk(v.Inner, fn)
	}
}

// Hashes returns the distinct Ref hashes in n, in order of appearance.
func Hashes(n Node) []string {
	var out []string
	seen := make(map[string]bool)
	Walk(n, func(node Node) bool {
		if r, ok := node.(Ref); ok && !seen[r.Hash] {
			seen[r.Hash] = true
			out = append(out, r.Hash)
		}
		return true
	})
	return out
}

// CircularRefs returns the distinct refs of Circular nodes in n.
func CircularRefs(n Node) []string {
	var out []string
	seen := make(map[string]bool)
	Walk(n, func(node Node) bool {
		if c, ok := node.(Circular); ok && !seen[c.Ref] {
			seen[c.Ref] = true
			out = append(out, c.Ref)
		}
		return true
	})
	return out
}

// TypeRefs returns the distinct refs of TypeRef nodes in n.
func TypeRefs(n Node) []string {
	var out []string
	seen := make(map[string]bool)
	Walk(n, func(node Node) bool {
		if t, ok := node.(TypeRef); ok && !seen[t.Ref] {
			seen[t.Ref] = true
			out = append(out, t.Ref)
		}
		return true
	})
	return out
}

// IsEmpty reports whether n renders to nothing.
func IsEmpty(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case Code:
		return v == ""
	case Concat:
		for _, child := range v {
			if !IsEmpty(child) {
				return false
			}
		}
		return true
	}
	return false
}

// Resolver supplies the names substituted for symbolic nodes.
type Resolver interface {
	// HashName returns the variable name bound to a schema hash.
	HashName(hash string) string
	// RefName returns the name declared for a ref.
	RefName(ref string) string
}

// Render writes n as source text. A nil resolver produces the canonical form
// used for hashing.
func Render(n Node, r Resolver) string {
	var sb strings.Builder
	render(&sb, n, r)
	return sb.String()
}

// Canonical renders n with stable placeholder tokens in place of names.
func Canonical(n Node) string {
	return Render(n, nil)
}

func render(sb *strings.Builder, n Node, r Resolver) {
	switch v := n.(type) {
	case nil:
	case Code:
		sb.WriteString(string(v))
	case Concat:
		for _, child := range v {
			render(sb, child, r)
		}
	case Ref:
		if r == nil {
			sb.WriteString("@ref/" + v.Hash)
			return
		}
		sb.WriteString(r.HashName(v.Hash))
	case Circular:
		if r == nil {
			sb.WriteString("@circular/" + v.Ref)
			return
		}
		sb.WriteString(r.RefName(v.Ref))
	case TypeRef:
		if r == nil {
			sb.WriteString("@type/" + v.Ref)
			return
		}
		sb.WriteString(r.RefName(v.Ref))
	case Lazy:
		sb.WriteString("z.lazy(() => ")
		render(sb, v.Inner, r)
		sb.WriteString(")")
	}
}

// Names is a Resolver backed by two lookup functions.
type Names struct {
	Hash func(hash string) string
	Ref  func(ref string) string
}

// HashName implements Resolver.
func (n Names) HashName(hash string) string {
	if n.Hash == nil {
		return "@ref/" + hash
	}
	return n.Hash(hash)
}

// RefName implements Resolver.
func (n Names) RefName(ref string) string {
	if n.Ref == nil {
		return "@circular/" + ref
	}
	return n.Ref(ref)
}
