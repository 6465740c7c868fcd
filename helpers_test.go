package xtend_test

import (
	"errors"
	"testing"

	xtend "github.com/reglet-dev/reglet-xtend"
	"github.com/reglet-dev/reglet-xtend/extension"
	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/values"
	"github.com/reglet-dev/reglet-xtend/universe"
	"github.com/stretchr/testify/require"
)

type Shape interface {
	Name() string
}

type square struct{}

func (*square) Name() string { return "square" }

type circle struct{}

func (*circle) Name() string { return "circle" }

type triangle struct{}

func (*triangle) Name() string { return "triangle" }

type polygon struct{}

func (*polygon) Name() string { return "polygon" }

// Canvas is a container of shapes.
type Canvas interface {
	xtend.Container
	Shapes() []Shape
}

type recorder struct {
	added int
}

type canvas struct {
	rec    *recorder
	shapes []Shape
}

func (c *canvas) SubCapability() values.Capability { return values.InterfaceOf[Shape]() }

func (c *canvas) AddImplementation(impl any) error {
	s, ok := impl.(Shape)
	if !ok {
		return errors.New("not a shape")
	}
	c.shapes = append(c.shapes, s)
	if c.rec != nil {
		c.rec.added++
	}
	return nil
}

func (c *canvas) Shapes() []Shape { return c.shapes }

func (c *canvas) names() []string {
	out := make([]string, len(c.shapes))
	for i, s := range c.shapes {
		out[i] = s.Name()
	}
	return out
}

// board extends the same abstract base as canvas but is not a container.
type board struct{}

const boardBase = "drawing.board"

func squareCandidate() *entities.Candidate {
	return entities.MustNewCandidateFor[*square]("shapes.square",
		entities.WithConstructors(entities.Constructor0(func() *square { return &square{} })),
		entities.WithMetadata(values.NewImplementationMetadata("1.0.0", "a square")))
}

func circleCandidate() *entities.Candidate {
	return entities.MustNewCandidateFor[*circle]("shapes.circle",
		entities.WithConstructors(entities.Constructor0(func() *circle { return &circle{} })),
		entities.WithMetadata(values.NewImplementationMetadata("1.1.0", "")))
}

func triangleCandidate() *entities.Candidate {
	return entities.MustNewCandidateFor[*triangle]("shapes.triangle",
		entities.WithConstructors(entities.Constructor0(func() *triangle { return &triangle{} })))
}

func polygonCandidate() *entities.Candidate {
	return entities.MustNewCandidateFor[*polygon]("shapes.polygon", entities.Abstract())
}

func canvasCandidate(name string, rec *recorder) *entities.Candidate {
	return entities.MustNewCandidateFor[*canvas](name,
		entities.Extends(boardBase),
		entities.WithConstructors(entities.Constructor0(func() *canvas { return &canvas{rec: rec} })))
}

func boardCandidate() *entities.Candidate {
	return entities.MustNewCandidateFor[*board]("drawing.plain",
		entities.Extends(boardBase),
		entities.WithConstructors(entities.Constructor0(func() *board { return &board{} })))
}

func newTable(t *testing.T, candidates ...*entities.Candidate) *universe.Table {
	t.Helper()
	table := universe.NewTable(universe.WithLogger(extension.NewTestLogger()))
	require.NoError(t, table.Register(candidates...))
	return table
}

func newManager(t *testing.T, table *universe.Table, opts ...xtend.Option) *xtend.Manager {
	t.Helper()
	base := []xtend.Option{
		xtend.WithUniverse(table),
		xtend.WithCatalog(nil),
		xtend.WithLogger(extension.NewTestLogger()),
	}
	m, err := xtend.NewManager(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}
