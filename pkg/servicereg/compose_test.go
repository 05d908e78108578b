package servicereg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/servicereg/pkg/servicereg/container"
)

// recordingContainer captures Register calls
type recordingContainer struct {
	calls []string
	fail  ImplementationID
}

func (c *recordingContainer) Register(contract *ContractID, impl ImplementationID, lifetime Lifetime) error {
	if impl == c.fail {
		return errors.New("boom")
	}
	key := "self"
	if contract != nil {
		key = string(*contract)
	}
	c.calls = append(c.calls, key+" > "+string(impl)+" ("+lifetime.String()+")")
	return nil
}

func greeterRegistry() *Registry {
	reg := NewRegistry()
	Implementation[*english](reg, Scoped, newEnglish, Exposes[greeter]())
	Decorator[*loud](reg, ID[english](), newLoud, Exposes[greeter]())
	return reg
}

func TestComposeDecoratorPlan(t *testing.T) {
	p, err := Compose(greeterRegistry(), Options{})
	require.NoError(t, err)

	g, en, ld := Contract[greeter](), ID[english](), ID[loud]()
	want := []Binding{
		{Contract: g, Implementation: ld, Lifetime: Scoped, Decorator: en, Role: DecoratorBinding},
		{Contract: g, Implementation: en, Lifetime: Scoped, Decorator: ld, Role: DecoratedBinding},
		{Contract: AccessorContract(en), Implementation: "accessor-for(" + en + ")", Lifetime: Scoped, Role: AccessorBinding},
	}
	assert.Equal(t, want, p.Bindings())
	assert.Equal(t, 3, p.Len())
}

func TestComposeReportsRegistryErrors(t *testing.T) {
	reg := NewRegistry()
	Implementation[*english](reg, Transient, newEnglish, Exposes[notifier]())

	_, err := Compose(reg, Options{})
	assert.ErrorIs(t, err, ErrContractMismatch)
}

func TestApplyRegistersInOrder(t *testing.T) {
	p, err := Compose(greeterRegistry(), Options{})
	require.NoError(t, err)

	rec := &recordingContainer{}
	require.NoError(t, p.Apply(context.Background(), rec))

	g, en := string(Contract[greeter]()), string(ID[english]())
	assert.Equal(t, []string{
		g + " > " + string(ID[loud]()) + " (Scoped)",
		"self > " + en + " (Scoped)",
		"decorator-accessor-of(" + en + ") > accessor-for(" + en + ") (Scoped)",
	}, rec.calls)
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	p, err := Compose(greeterRegistry(), Options{})
	require.NoError(t, err)

	rec := &recordingContainer{fail: ID[english]()}
	err = p.Apply(context.Background(), rec)
	require.Error(t, err)
	assert.Len(t, rec.calls, 1)
	assert.Contains(t, err.Error(), "boom")
}

func TestApplyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recordingContainer{}
	err := NewPlan([]Binding{{Contract: "c", Implementation: "i"}}).Apply(ctx, rec)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.calls)
}

func TestBuildResolvesDecoratedComponent(t *testing.T) {
	ctx := context.Background()
	reg := greeterRegistry()
	p, err := Compose(reg, Options{})
	require.NoError(t, err)

	c, err := p.Build(ctx, reg)
	require.NoError(t, err)

	g, err := container.Resolve[greeter](ctx, c.NewScope(), string(Contract[greeter]()))
	require.NoError(t, err)
	assert.Equal(t, "hello!", g.Greet())
}

func TestPlanDecorate(t *testing.T) {
	type shouting struct{ loud }

	reg := greeterRegistry()
	p, err := Compose(reg, Options{})
	require.NoError(t, err)

	decorated, err := p.Decorate(Contract[greeter](), ID[shouting](), ID[loud]())
	require.NoError(t, err)
	assert.Equal(t, ID[shouting](), decorated.Bindings()[0].Implementation)
	assert.Equal(t, 3, p.Len(), "original plan is unchanged")

	_, err = p.Decorate("missing", ID[shouting](), ID[loud]())
	assert.ErrorIs(t, err, ErrUnknownContract)
}

func TestComposeWithFilters(t *testing.T) {
	reg := greeterRegistry()

	_, err := Compose(reg, Options{TypeFilter: ExcludeTypes("servicereg.english")})
	assert.ErrorIs(t, err, ErrMissingDecoratedImplementation)

	p, err := Compose(reg, Options{UnitFilter: ExcludeUnits("github.com/toyz/servicereg/...")})
	require.NoError(t, err)
	assert.Zero(t, p.Len())
}

type french struct{}

func (*french) Greet() string { return "bonjour" }

func newFrench(context.Context, container.Resolver) (*french, error) { return &french{}, nil }

func TestBuildResolvesThroughRemappedChain(t *testing.T) {
	ctx := context.Background()
	reg := greeterRegistry()
	Provide[*french](reg, newFrench)

	p, err := Compose(reg, Options{
		RemapImplementation: Remap(map[ImplementationID]ImplementationID{ID[english](): ID[french]()}),
	})
	require.NoError(t, err)

	en, fr := ID[english](), ID[french]()
	assert.Equal(t, Binding{
		Contract:       AccessorContract(en),
		Implementation: "accessor-for(" + fr + ")",
		Lifetime:       Scoped,
		Role:           AccessorBinding,
	}, p.Bindings()[2])

	c, err := p.Build(ctx, reg)
	require.NoError(t, err)

	g, err := container.Resolve[greeter](ctx, c.NewScope(), string(Contract[greeter]()))
	require.NoError(t, err)
	assert.Equal(t, "bonjour!", g.Greet())
}

func TestComposeDecoratorCompetesWithImplementation(t *testing.T) {
	ctx := context.Background()
	reg := greeterRegistry()
	Implementation[*french](reg, Scoped, newFrench, Exposes[greeter]())

	_, err := Compose(reg, Options{})
	assert.ErrorIs(t, err, ErrUnresolvedConflict)

	tests := []struct {
		name   string
		prefer ImplementationID
		size   int
		greets string
	}{
		{"decorator chain kept", ID[loud](), 3, "hello!"},
		{"plain implementation kept", ID[french](), 1, "bonjour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compose(reg, Options{ResolveConflict: Prefer(tt.prefer)})
			require.NoError(t, err)
			assert.Equal(t, tt.size, p.Len())

			c, err := p.Build(ctx, reg)
			require.NoError(t, err)

			g, err := container.Resolve[greeter](ctx, c.NewScope(), string(Contract[greeter]()))
			require.NoError(t, err)
			assert.Equal(t, tt.greets, g.Greet())
		})
	}
}
