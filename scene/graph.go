// Package scene holds the parented scene graph that map synchronization
// produces: an arena of nodes keyed by stable ids, each carrying a set of
// typed records, and a queue of mutations applied after a traversal.
package scene

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync/atomic"
)

var (
	ErrNodeNotFound = errors.New("scene: node not found")
	ErrNodeExists   = errors.New("scene: node already exists")
)

// NodeID identifies a node. Ids are never reused; None is never assigned.
type NodeID uint64

const None NodeID = 0

func (id NodeID) String() string { return fmt.Sprintf("#%d", uint64(id)) }

type Node struct {
	ID        NodeID
	Name      string
	Parent    NodeID
	Children  []NodeID
	Transform Transform
	records   map[string]any
}

// Graph is not safe for concurrent mutation; Reserve is.
type Graph struct {
	next  atomic.Uint64
	nodes map[NodeID]*Node
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// Reserve returns a fresh id without creating a node, so that queued
// commands can refer to nodes that do not exist yet.
func (g *Graph) Reserve() NodeID {
	return NodeID(g.next.Add(1))
}

// Spawn creates a node immediately.
func (g *Graph) Spawn(name string, parent NodeID, t Transform) (NodeID, error) {
	id := g.Reserve()
	if err := g.create(id, name, parent, t); err != nil {
		return None, err
	}
	return id, nil
}

func (g *Graph) create(id NodeID, name string, parent NodeID, t Transform) error {
	if _, ok := g.nodes[id]; ok {
		return fmt.Errorf("%w: %v", ErrNodeExists, id)
	}
	if parent != None {
		if _, ok := g.nodes[parent]; !ok {
			return fmt.Errorf("%w: parent %v of %q", ErrNodeNotFound, parent, name)
		}
	}
	if t.Matrix == (Transform{}).Matrix {
		t = Identity()
	}
	g.nodes[id] = &Node{ID: id, Name: name, Parent: parent, Transform: t}
	if parent != None {
		p := g.nodes[parent]
		p.Children = append(p.Children, id)
	}
	return nil
}

func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

func (g *Graph) Contains(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Len() int { return len(g.nodes) }

// Children returns a copy of the children of id in insertion order.
func (g *Graph) Children(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.Children)
}

func (g *Graph) Parent(id NodeID) NodeID {
	if n, ok := g.nodes[id]; ok {
		return n.Parent
	}
	return None
}

// SetParent moves id under parent. None detaches it.
func (g *Graph) SetParent(id, parent NodeID) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %v", ErrNodeNotFound, id)
	}
	if parent != None {
		if _, ok := g.nodes[parent]; !ok {
			return fmt.Errorf("%w: parent %v", ErrNodeNotFound, parent)
		}
		for p := parent; p != None; p = g.nodes[p].Parent {
			if p == id {
				return fmt.Errorf("scene: %v cannot be parented under its descendant %v", id, parent)
			}
		}
	}
	g.detach(n)
	n.Parent = parent
	if parent != None {
		p := g.nodes[parent]
		p.Children = append(p.Children, id)
	}
	return nil
}

func (g *Graph) detach(n *Node) {
	if n.Parent == None {
		return
	}
	if p, ok := g.nodes[n.Parent]; ok {
		if i := slices.Index(p.Children, n.ID); i >= 0 {
			p.Children = slices.Delete(p.Children, i, i+1)
		}
	}
	n.Parent = None
}

// Despawn removes id and all of its descendants and returns how many nodes
// were removed.
func (g *Graph) Despawn(id NodeID) int {
	n, ok := g.nodes[id]
	if !ok {
		return 0
	}
	g.detach(n)

	removed := 0
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c, ok := g.nodes[cur]
		if !ok {
			continue
		}
		stack = append(stack, c.Children...)
		delete(g.nodes, cur)
		removed++
	}
	return removed
}

// Walk visits root and its descendants depth first, parents before
// children. Returning false from fn skips the children of that node.
func (g *Graph) Walk(root NodeID, fn func(n *Node, depth int) bool) {
	var visit func(id NodeID, depth int)
	visit = func(id NodeID, depth int) {
		n, ok := g.nodes[id]
		if !ok || !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(root, 0)
}

// Roots returns the nodes without a parent in ascending id order.
func (g *Graph) Roots() []NodeID {
	var roots []NodeID
	for id, n := range g.nodes {
		if n.Parent == None {
			roots = append(roots, id)
		}
	}
	slices.Sort(roots)
	return roots
}

// GlobalTransform composes the transforms from the root down to id.
func (g *Graph) GlobalTransform(id NodeID) Transform {
	n, ok := g.nodes[id]
	if !ok {
		return Identity()
	}
	if n.Parent == None {
		return n.Transform
	}
	return g.GlobalTransform(n.Parent).Mul(n.Transform)
}

// Record returns the record of type name attached to id.
func (g *Graph) Record(id NodeID, name string) (any, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	v, ok := n.records[name]
	return v, ok
}

// SetRecord attaches v to id under name, replacing any previous value.
func (g *Graph) SetRecord(id NodeID, name string, v any) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %v", ErrNodeNotFound, id)
	}
	if n.records == nil {
		n.records = make(map[string]any)
	}
	n.records[name] = v
	return nil
}

// DeleteRecord detaches the record name from id and reports whether it was
// present.
func (g *Graph) DeleteRecord(id NodeID, name string) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	if _, ok := n.records[name]; !ok {
		return false
	}
	delete(n.records, name)
	return true
}

// Records returns the record type names attached to id, sorted.
func (g *Graph) Records(id NodeID) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(n.records))
	for name := range n.records {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// With returns every node carrying a record of type name, in ascending id
// order.
func (g *Graph) With(name string) []NodeID {
	var ids []NodeID
	for id, n := range g.nodes {
		if _, ok := n.records[name]; ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// TypeName is the fully qualified name records of type t are stored under.
func TypeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + TypeName(t.Elem())
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// RecordName returns TypeName for T.
func RecordName[T any]() string {
	return TypeName(reflect.TypeFor[T]())
}

// Get returns the record of type T attached to id.
func Get[T any](g *Graph, id NodeID) (T, bool) {
	v, ok := g.Record(id, RecordName[T]())
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func Has[T any](g *Graph, id NodeID) bool {
	_, ok := g.Record(id, RecordName[T]())
	return ok
}

// Insert attaches v to id under the name of T.
func Insert[T any](g *Graph, id NodeID, v T) error {
	return g.SetRecord(id, RecordName[T](), v)
}
