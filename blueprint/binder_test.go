package blueprint

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	tmx "github.com/talvor/tmxblueprints"
	"github.com/talvor/tmxblueprints/scene"
)

type Health struct{ Value int }

type Speed float32

type Player struct{}

type Stats struct {
	Name      string
	Strength  int
	Dexterity float32
}

type Tint struct{ Color LinearRgba }

type Waypoints struct {
	Points []int `blueprint:"pts"`
}

type Team int

const (
	Red Team = iota
	Green
	Blue
)

func testRegistry() *Registry {
	r := NewRegistry()
	Register[Health](r)
	Register[Speed](r)
	Register[Player](r)
	Register[Stats](r)
	Register[Tint](r)
	Register[Waypoints](r)
	Register[LinearRgba](r)
	RegisterEnum(r,
		Variant[Team]{"Red", Red},
		Variant[Team]{"Green", Green},
		Variant[Team]{"Blue", Blue},
	)
	return r
}

func testBinder(buf *bytes.Buffer) *Binder {
	b := NewBinder(testRegistry())
	b.Logger = zerolog.New(buf)
	return b
}

// bindOne binds props onto a fresh node and returns the graph after Apply.
func bindOne(t *testing.T, b *Binder, props tmx.Properties) (*scene.Graph, scene.NodeID, error) {
	t.Helper()
	g := scene.NewGraph()
	node, err := g.Spawn("node", scene.None, scene.Identity())
	if err != nil {
		t.Fatal(err)
	}
	cmds := scene.NewCommands(g)
	bindErr := b.Bind(props, node, cmds)
	if err := cmds.Apply(g); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	return g, node, bindErr
}

func TestBindScalarsAndStructs(t *testing.T) {
	var buf bytes.Buffer
	g, node, err := bindOne(t, testBinder(&buf), tmx.Properties{
		"Health":    tmx.IntValue(5),
		"Speed":     tmx.FloatValue(2.5),
		"Player":    tmx.BoolValue(true),
		"Stats":     tmx.StringValue(`(name: "Bob", strength: 3, dexterity: 1.5)`),
		"Waypoints": tmx.StringValue(`(pts: [1, 2, 3])`),
		"Tint":      tmx.ColorValue(tmx.Color{R: 255, G: 0, B: 0, A: 255}),
		"Unrelated": tmx.StringValue("ignored"),
	})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if h, ok := scene.Get[Health](g, node); !ok || h.Value != 5 {
		t.Errorf("Health = %+v, %v, want {5}", h, ok)
	}
	if s, ok := scene.Get[Speed](g, node); !ok || s != 2.5 {
		t.Errorf("Speed = %v, %v, want 2.5", s, ok)
	}
	if !scene.Has[Player](g, node) {
		t.Error("Player marker missing")
	}
	want := Stats{Name: "Bob", Strength: 3, Dexterity: 1.5}
	if s, ok := scene.Get[Stats](g, node); !ok || s != want {
		t.Errorf("Stats = %+v, want %+v", s, want)
	}
	if w, ok := scene.Get[Waypoints](g, node); !ok || len(w.Points) != 3 || w.Points[2] != 3 {
		t.Errorf("Waypoints = %+v", w)
	}
	tint, ok := scene.Get[Tint](g, node)
	if !ok || tint.Color != (LinearRgba{Red: 1, Alpha: 1}) {
		t.Errorf("Tint = %+v, %v", tint, ok)
	}
	if got := len(g.Records(node)); got != 6 {
		t.Errorf("records = %v, want 6", g.Records(node))
	}
}

func TestBindColorRecord(t *testing.T) {
	var buf bytes.Buffer
	g, node, err := bindOne(t, testBinder(&buf), tmx.Properties{
		"LinearRgba": tmx.ColorValue(tmx.Color{R: 0, G: 255, B: 0, A: 255}),
	})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if c, ok := scene.Get[LinearRgba](g, node); !ok || c != (LinearRgba{Green: 1, Alpha: 1}) {
		t.Errorf("LinearRgba = %+v, %v", c, ok)
	}
}

func TestBindEnumIgnoresCase(t *testing.T) {
	for _, text := range []string{"Red", "red", "RED", "(Red)"} {
		var buf bytes.Buffer
		g, node, err := bindOne(t, testBinder(&buf), tmx.Properties{"Team": tmx.StringValue(text)})
		if err != nil {
			t.Errorf("Bind(%q) failed: %v", text, err)
			continue
		}
		if team, ok := scene.Get[Team](g, node); !ok || team != Red {
			t.Errorf("Bind(%q) = %v, %v, want Red", text, team, ok)
		}
	}
}

func TestBindUnknownVariantKeepsOtherProperties(t *testing.T) {
	var buf bytes.Buffer
	g, node, err := bindOne(t, testBinder(&buf), tmx.Properties{
		"Team":   tmx.StringValue("Purple"),
		"Health": tmx.IntValue(9),
	})
	if !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("err = %v, want ErrUnknownVariant", err)
	}
	var be *BindError
	if !errors.As(err, &be) || be.Key != "Team" {
		t.Errorf("err = %v, want a *BindError for Team", err)
	}
	if scene.Has[Team](g, node) {
		t.Error("Team inserted despite an unknown variant")
	}
	if h, ok := scene.Get[Health](g, node); !ok || h.Value != 9 {
		t.Errorf("Health = %+v, %v, want {9}", h, ok)
	}
	if !strings.Contains(buf.String(), "failed to bind property") {
		t.Errorf("failure not logged: %s", buf.String())
	}
}

func TestBindReportsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		props tmx.Properties
		want  error
	}{
		{"unbalanced", tmx.Properties{"Health": tmx.StringValue("(3")}, ErrUnbalanced},
		{"wrong kind", tmx.Properties{"Health": tmx.StringValue("abc")}, nil},
		{"float into int", tmx.Properties{"Stats": tmx.StringValue("(name: x, strength: 1.5)")}, nil},
		{"unknown field", tmx.Properties{"Stats": tmx.StringValue("(speed: 1)")}, nil},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		g, node, err := bindOne(t, testBinder(&buf), tt.props)
		if err == nil {
			t.Errorf("%s: expected an error", tt.name)
			continue
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
		if len(g.Records(node)) != 0 {
			t.Errorf("%s: records %v inserted", tt.name, g.Records(node))
		}
	}
}

func TestBindTwiceIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	b := testBinder(&buf)
	g := scene.NewGraph()
	node, _ := g.Spawn("node", scene.None, scene.Identity())
	props := tmx.Properties{"Health": tmx.IntValue(3), "Team": tmx.StringValue("blue")}

	for range 2 {
		cmds := scene.NewCommands(g)
		if err := b.Bind(props, node, cmds); err != nil {
			t.Fatal(err)
		}
		if err := cmds.Apply(g); err != nil {
			t.Fatal(err)
		}
	}

	if got := len(g.Records(node)); got != 2 {
		t.Errorf("records = %v, want 2", g.Records(node))
	}
	if team, _ := scene.Get[Team](g, node); team != Blue {
		t.Errorf("Team = %v, want Blue", team)
	}
}

func TestBindRemove(t *testing.T) {
	var buf bytes.Buffer
	b := testBinder(&buf)
	g := scene.NewGraph()
	node, _ := g.Spawn("node", scene.None, scene.Identity())
	scene.Insert(g, node, Health{Value: 1})
	scene.Insert(g, node, Red)

	cmds := scene.NewCommands(g)
	err := b.Bind(tmx.Properties{
		"remove:Health":  tmx.BoolValue(true),
		"remove:Player":  tmx.BoolValue(true),
		"remove:Missing": tmx.BoolValue(true),
	}, node, cmds)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if cmds.Len() != 2 {
		t.Errorf("queued %d commands, want 2", cmds.Len())
	}
	if err := cmds.Apply(g); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if scene.Has[Health](g, node) {
		t.Error("Health not removed")
	}
	if !scene.Has[Team](g, node) {
		t.Error("Team removed although not requested")
	}
	if !strings.Contains(buf.String(), "cannot remove unknown record type") {
		t.Errorf("unknown removal not logged: %s", buf.String())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Shape
	}{
		{"", Bare},
		{"42", Bare},
		{"(1, 2)", Wrapped},
		{"LinearRgba(red:1,green:1,blue:1, alpha:1)", Bare},
		{"(1", Unbalanced},
		{"1)", Unbalanced},
		{"a b)", Unbalanced},
	}
	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		v    tmx.PropertyValue
		want string
	}{
		{tmx.BoolValue(false), "false"},
		{tmx.IntValue(-7), "-7"},
		{tmx.FloatValue(1), "1"},
		{tmx.FloatValue(0.25), "0.25"},
		{tmx.StringValue("x"), "x"},
		{tmx.ColorValue(tmx.Color{R: 255, A: 255}), "LinearRgba(red:1,green:0,blue:0, alpha:1)"},
		{tmx.FileValue("a.png"), ""},
		{tmx.ObjectValue(3), ""},
	}
	for _, tt := range tests {
		if got := Render(tt.v); got != tt.want {
			t.Errorf("Render(%v) = %q, want %q", tt.v.Type, got, tt.want)
		}
	}
}

func TestRegisterDuplicateNamePanics(t *testing.T) {
	r := NewRegistry()
	Register[Health](r)
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	Register[Health](r)
}

func TestTypeParse(t *testing.T) {
	r := testRegistry()
	typ, ok := r.Lookup("Stats")
	if !ok {
		t.Fatal("Stats not registered")
	}
	v, err := typ.Parse(r, `("Ann", 2)`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s := v.(Stats); s.Name != "Ann" || s.Strength != 2 || s.Dexterity != 0 {
		t.Errorf("Stats = %+v", s)
	}
	if _, ok := r.Lookup("stats"); ok {
		t.Error("lookup must be case-sensitive")
	}
	if team, _ := r.Lookup("Team"); !team.IsEnum() || len(team.VariantNames()) != 3 {
		t.Errorf("Team variants = %v", team.VariantNames())
	}
}
