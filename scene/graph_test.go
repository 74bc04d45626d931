package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

type health struct{ Current int }

type marker struct{}

func mustSpawn(t *testing.T, g *Graph, name string, parent NodeID) NodeID {
	t.Helper()
	id, err := g.Spawn(name, parent, Identity())
	if err != nil {
		t.Fatalf("Spawn(%q) failed: %v", name, err)
	}
	return id
}

func TestDespawnRemovesSubtree(t *testing.T) {
	g := NewGraph()
	root := mustSpawn(t, g, "root", None)
	a := mustSpawn(t, g, "a", root)
	b := mustSpawn(t, g, "b", root)
	mustSpawn(t, g, "a1", a)
	mustSpawn(t, g, "a2", a)

	if n := g.Despawn(a); n != 3 {
		t.Errorf("Despawn removed %d nodes, want 3", n)
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}
	children := g.Children(root)
	if len(children) != 1 || children[0] != b {
		t.Errorf("children of root = %v, want [%v]", children, b)
	}
	if n := g.Despawn(a); n != 0 {
		t.Errorf("second Despawn removed %d nodes, want 0", n)
	}
}

func TestSpawnUnknownParent(t *testing.T) {
	g := NewGraph()
	if _, err := g.Spawn("orphan", NodeID(42), Identity()); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
}

func TestSetParentRejectsCycle(t *testing.T) {
	g := NewGraph()
	root := mustSpawn(t, g, "root", None)
	child := mustSpawn(t, g, "child", root)

	if err := g.SetParent(root, child); err == nil {
		t.Fatal("expected an error when parenting a node under its descendant")
	}

	other := mustSpawn(t, g, "other", None)
	if err := g.SetParent(child, other); err != nil {
		t.Fatalf("SetParent failed: %v", err)
	}
	if len(g.Children(root)) != 0 {
		t.Errorf("root still has children %v", g.Children(root))
	}
	if g.Parent(child) != other {
		t.Errorf("parent = %v, want %v", g.Parent(child), other)
	}
}

func TestRecords(t *testing.T) {
	g := NewGraph()
	id := mustSpawn(t, g, "n", None)

	if err := Insert(g, id, health{Current: 3}); err != nil {
		t.Fatal(err)
	}
	if err := Insert(g, id, health{Current: 7}); err != nil {
		t.Fatal(err)
	}
	if err := Insert(g, id, marker{}); err != nil {
		t.Fatal(err)
	}

	h, ok := Get[health](g, id)
	if !ok || h.Current != 7 {
		t.Errorf("health = %+v, %v, want {7}, true", h, ok)
	}
	if got := len(g.Records(id)); got != 2 {
		t.Errorf("records = %d, want 2", got)
	}
	if ids := g.With(RecordName[marker]()); len(ids) != 1 || ids[0] != id {
		t.Errorf("With(marker) = %v, want [%v]", ids, id)
	}
	if !g.DeleteRecord(id, RecordName[marker]()) {
		t.Error("DeleteRecord returned false for a present record")
	}
	if Has[marker](g, id) {
		t.Error("marker still attached")
	}
}

func TestRecordName(t *testing.T) {
	want := "github.com/talvor/tmxblueprints/scene.health"
	if got := RecordName[health](); got != want {
		t.Errorf("RecordName = %q, want %q", got, want)
	}
	if got := RecordName[*health](); got != "*"+want {
		t.Errorf("RecordName = %q, want %q", got, "*"+want)
	}
}

func TestCommandsAreDeferred(t *testing.T) {
	g := NewGraph()
	root := mustSpawn(t, g, "root", None)

	cmds := NewCommands(g)
	child := cmds.Spawn("child", root, FromXYZ(1, 2, 3))
	cmds.Attach(child, health{Current: 1})
	cmds.Remove(child, RecordName[marker]())

	if g.Contains(child) {
		t.Fatal("node exists before Apply")
	}
	if cmds.Len() != 3 {
		t.Fatalf("Len = %d, want 3", cmds.Len())
	}
	if err := cmds.Apply(g); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if cmds.Len() != 0 {
		t.Errorf("queue not emptied")
	}
	if g.Parent(child) != root {
		t.Errorf("parent = %v, want %v", g.Parent(child), root)
	}
	if h, ok := Get[health](g, child); !ok || h.Current != 1 {
		t.Errorf("health = %+v, %v", h, ok)
	}

	cmds.Despawn(root)
	cmds.Attach(child, marker{})
	if err := cmds.Apply(g); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("err = %v, want ErrNodeNotFound", err)
	}
	if g.Len() != 0 {
		t.Errorf("Len = %d, want 0", g.Len())
	}
}

func TestGlobalTransform(t *testing.T) {
	g := NewGraph()
	root, _ := g.Spawn("root", None, FromXYZ(10, 0, 0))
	child, _ := g.Spawn("child", root, FromXYZ(0, 5, 1))

	got := g.GlobalTransform(child).Translation()
	want := mgl32.Vec3{10, 5, 1}
	if !got.ApproxEqual(want) {
		t.Errorf("global translation = %v, want %v", got, want)
	}
	if p := FromXYZ(1, 1, 0).Apply(mgl32.Vec3{2, 3, 0}); !p.ApproxEqual(mgl32.Vec3{3, 4, 0}) {
		t.Errorf("Apply = %v", p)
	}
	var zero Transform
	if tr := zero.Mul(FromXYZ(1, 0, 0)).Translation(); !tr.ApproxEqual(mgl32.Vec3{1, 0, 0}) {
		t.Errorf("zero transform is not the identity: %v", tr)
	}
}
