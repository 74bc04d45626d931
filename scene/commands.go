package scene

import (
	"errors"
	"fmt"
	"reflect"
)

// Command is one queued graph mutation.
type Command interface {
	Apply(g *Graph) error
}

// CreateNode creates a node under an id obtained from Graph.Reserve.
type CreateNode struct {
	ID        NodeID
	Name      string
	Parent    NodeID
	Transform Transform
}

func (c CreateNode) Apply(g *Graph) error {
	return g.create(c.ID, c.Name, c.Parent, c.Transform)
}

// AttachRecord sets the record Type of Node to Value, replacing a previous
// value of that type.
type AttachRecord struct {
	Node  NodeID
	Type  string
	Value any
}

func (c AttachRecord) Apply(g *Graph) error {
	return g.SetRecord(c.Node, c.Type, c.Value)
}

// RemoveRecord detaches the record Type from Node. Removing a record the
// node does not carry is a no-op.
type RemoveRecord struct {
	Node NodeID
	Type string
}

func (c RemoveRecord) Apply(g *Graph) error {
	if !g.Contains(c.Node) {
		return fmt.Errorf("%w: %v", ErrNodeNotFound, c.Node)
	}
	g.DeleteRecord(c.Node, c.Type)
	return nil
}

// DespawnSubtree removes Node and its descendants. A node that is already
// gone is skipped.
type DespawnSubtree struct {
	Node NodeID
}

func (c DespawnSubtree) Apply(g *Graph) error {
	g.Despawn(c.Node)
	return nil
}

// Commands queues mutations so that a traversal never observes its own
// half-applied changes.
type Commands struct {
	graph *Graph
	queue []Command
}

// NewCommands returns a queue whose Spawn reserves ids from g.
func NewCommands(g *Graph) *Commands {
	return &Commands{graph: g}
}

func (c *Commands) Push(cmd Command) {
	c.queue = append(c.queue, cmd)
}

func (c *Commands) Len() int { return len(c.queue) }

// Queued returns the pending commands in order.
func (c *Commands) Queued() []Command { return c.queue }

// Spawn queues a CreateNode and returns the id the node will have.
func (c *Commands) Spawn(name string, parent NodeID, t Transform) NodeID {
	id := c.graph.Reserve()
	c.Push(CreateNode{ID: id, Name: name, Parent: parent, Transform: t})
	return id
}

// Attach queues v as a record of node, named after the dynamic type of v.
func (c *Commands) Attach(node NodeID, v any) {
	c.Push(AttachRecord{Node: node, Type: TypeName(reflect.TypeOf(v)), Value: v})
}

func (c *Commands) Remove(node NodeID, typ string) {
	c.Push(RemoveRecord{Node: node, Type: typ})
}

func (c *Commands) Despawn(node NodeID) {
	c.Push(DespawnSubtree{Node: node})
}

// Apply runs the queued commands in order and empties the queue. A failing
// command does not stop the ones after it; all failures are returned.
func (c *Commands) Apply(g *Graph) error {
	var errs []error
	for _, cmd := range c.queue {
		if err := cmd.Apply(g); err != nil {
			errs = append(errs, err)
		}
	}
	c.queue = c.queue[:0]
	return errors.Join(errs...)
}
