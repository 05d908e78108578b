package resolver

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
	"github.com/toyz/servicereg/internal/plan"
)

const (
	forecaster models.ContractID = "app.Forecaster"
	repository models.ContractID = "app.Repository"
)

func component(id models.ImplementationID, lifetime models.Lifetime, contracts ...models.ContractID) models.ComponentMetadata {
	return models.ComponentMetadata{ID: id, Lifetime: lifetime, Contracts: contracts}
}

func link(decorator, wraps, base models.ImplementationID, contract models.ContractID, lifetime models.Lifetime) models.DecoratorLink {
	return models.DecoratorLink{Decorator: decorator, Wraps: wraps, Contract: contract, Base: base, Lifetime: lifetime}
}

func decorated(contract models.ContractID, impl, by models.ImplementationID, lifetime models.Lifetime) models.Binding {
	return models.Binding{Contract: contract, Implementation: impl, Lifetime: lifetime, Decorator: by, Role: models.DecoratedBinding}
}

func outer(contract models.ContractID, decorator, wraps models.ImplementationID, lifetime models.Lifetime) models.Binding {
	return models.Binding{Contract: contract, Implementation: decorator, Lifetime: lifetime, Decorator: wraps, Role: models.DecoratorBinding}
}

func TestResolveSingleImplementation(t *testing.T) {
	seq, err := Resolve(models.ScanResult{
		Implementations: []models.ComponentMetadata{component("app.Weather", models.Singleton, forecaster)},
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []models.Binding{models.NewBinding(forecaster, "app.Weather", models.Singleton)}, seq.Bindings())
}

func TestResolveContractSelection(t *testing.T) {
	tests := []struct {
		name   string
		impl   models.ComponentMetadata
		want   models.ContractID
		target error
	}{
		{"sole exposed contract", component("app.A", models.Transient, forecaster), forecaster, nil},
		{"explicit contract wins", models.ComponentMetadata{ID: "app.A", Contract: repository, Contracts: []models.ContractID{forecaster, repository}}, repository, nil},
		{"several contracts", component("app.A", models.Transient, forecaster, repository), "", errors.ErrAmbiguousContract},
		{"no contract", component("app.A", models.Transient), "", errors.ErrMissingContract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Resolve(models.ScanResult{Implementations: []models.ComponentMetadata{tt.impl}}, Options{})
			if tt.target != nil {
				assert.True(t, stderrors.Is(err, tt.target), "got %v", err)
				assert.Equal(t, 0, seq.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, seq.At(0).Contract)
		})
	}
}

func TestResolveSkipsDuplicateTriples(t *testing.T) {
	weather := component("app.Weather", models.Scoped, forecaster)
	seq, err := Resolve(models.ScanResult{Implementations: []models.ComponentMetadata{weather, weather}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, seq.Len())
}

func weatherChainScan() models.ScanResult {
	return models.ScanResult{
		Implementations: []models.ComponentMetadata{component("app.Weather", models.Scoped, forecaster)},
		Decorators: []models.DecoratorLink{
			link("app.D2", "app.D1", "app.Weather", forecaster, models.Scoped),
			link("app.D3", "app.D2", "app.Weather", forecaster, models.Scoped),
			link("app.D1", "app.Weather", "app.Weather", forecaster, models.Scoped),
		},
	}
}

func TestResolveThreeLevelChain(t *testing.T) {
	seq, err := Resolve(weatherChainScan(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []models.Binding{
		outer(forecaster, "app.D3", "app.D2", models.Scoped),
		decorated(forecaster, "app.Weather", "app.D1", models.Scoped),
		models.NewAccessorBinding("app.Weather", models.Scoped),
		decorated(forecaster, "app.D1", "app.D2", models.Scoped),
		models.NewAccessorBinding("app.D1", models.Scoped),
		decorated(forecaster, "app.D2", "app.D3", models.Scoped),
		models.NewAccessorBinding("app.D2", models.Scoped),
	}, seq.Bindings())
}

func TestResolveChainsPerContract(t *testing.T) {
	seq, err := Resolve(models.ScanResult{
		Implementations: []models.ComponentMetadata{
			component("app.Weather", models.Singleton, forecaster),
			component("app.FileRepo", models.Transient, repository),
		},
		Decorators: []models.DecoratorLink{
			link("app.Audit", "app.FileRepo", "app.FileRepo", repository, models.Transient),
			link("app.Cache", "app.Weather", "app.Weather", forecaster, models.Singleton),
		},
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []models.Binding{
		outer(forecaster, "app.Cache", "app.Weather", models.Singleton),
		outer(repository, "app.Audit", "app.FileRepo", models.Transient),
		decorated(repository, "app.FileRepo", "app.Audit", models.Transient),
		models.NewAccessorBinding("app.FileRepo", models.Transient),
		decorated(forecaster, "app.Weather", "app.Cache", models.Singleton),
		models.NewAccessorBinding("app.Weather", models.Singleton),
	}, seq.Bindings())
}

func TestResolveAmbiguousChains(t *testing.T) {
	base := []models.ComponentMetadata{component("app.Weather", models.Transient, forecaster)}
	tests := []struct {
		name  string
		links []models.DecoratorLink
	}{
		{
			name: "two roots on the same implementation",
			links: []models.DecoratorLink{
				link("app.D1", "app.Weather", "app.Weather", forecaster, models.Transient),
				link("app.D2", "app.Weather", "app.Weather", forecaster, models.Transient),
			},
		},
		{
			name: "diamond",
			links: []models.DecoratorLink{
				link("app.D1", "app.Weather", "app.Weather", forecaster, models.Transient),
				link("app.D2", "app.D1", "app.Weather", forecaster, models.Transient),
				link("app.D3", "app.D1", "app.Weather", forecaster, models.Transient),
			},
		},
		{
			name: "cycle",
			links: []models.DecoratorLink{
				link("app.D1", "app.D2", "app.Weather", forecaster, models.Transient),
				link("app.D2", "app.D1", "app.Weather", forecaster, models.Transient),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Resolve(models.ScanResult{Implementations: base, Decorators: tt.links}, Options{})
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrAmbiguousDecoratorChain), "got %v", err)
			assert.Equal(t, 0, seq.Len())
		})
	}
}

func TestResolveMissingDecoratedImplementation(t *testing.T) {
	_, err := Resolve(models.ScanResult{
		Decorators: []models.DecoratorLink{link("app.D1", "app.Weather", "app.Weather", forecaster, models.Transient)},
	}, Options{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMissingDecoratedImplementation))

	var se errors.ServiceError
	require.True(t, stderrors.As(err, &se))
	assert.Equal(t, models.ImplementationID("app.D1"), se.Context()["decorator"])
}

func conflictScan() models.ScanResult {
	return models.ScanResult{
		Implementations: []models.ComponentMetadata{
			component("app.Weather", models.Transient, forecaster),
			component("app.SQLRepo", models.Transient, repository),
			component("app.Clock", models.Singleton, "app.Clock"),
			component("app.FileRepo", models.Transient, repository),
		},
	}
}

func TestResolveConflictWithoutResolver(t *testing.T) {
	_, err := Resolve(conflictScan(), Options{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnresolvedConflict))

	var se errors.ServiceError
	require.True(t, stderrors.As(err, &se))
	assert.Equal(t, repository, se.Context()["contract"])
	assert.Equal(t, []models.ImplementationID{"app.SQLRepo", "app.FileRepo"}, se.Context()["candidates"])
}

func TestResolveConflictWithResolver(t *testing.T) {
	seq, err := Resolve(conflictScan(), Options{ResolveConflict: preferImpl("app.FileRepo")})
	require.NoError(t, err)
	assert.Equal(t, []models.ImplementationID{"app.Weather", "app.Clock", "app.FileRepo"}, implementations(seq))

	seq, err = Resolve(conflictScan(), Options{ResolveConflict: preferImpl("app.SQLRepo")})
	require.NoError(t, err)
	assert.Equal(t, []models.ImplementationID{"app.Weather", "app.SQLRepo", "app.Clock"}, implementations(seq))

	_, err = Resolve(conflictScan(), Options{ResolveConflict: preferImpl("app.Unknown")})
	assert.True(t, stderrors.Is(err, errors.ErrUnresolvedConflict))
}

func TestResolveConflictRejectsForeignBinding(t *testing.T) {
	_, err := Resolve(conflictScan(), Options{
		ResolveConflict: func(models.ConflictKey, []models.Binding) (models.Binding, bool) {
			return models.NewBinding(repository, "app.Elsewhere", models.Transient), true
		},
	})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnresolvedConflict))
}

func TestResolveSameContractDifferentLifetimesDoNotConflict(t *testing.T) {
	seq, err := Resolve(models.ScanResult{
		Implementations: []models.ComponentMetadata{
			component("app.A", models.Transient, repository),
			component("app.B", models.Singleton, repository),
		},
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, seq.Len())
}

func TestResolveConflictResolverReceivesKey(t *testing.T) {
	var got []models.ConflictKey
	_, err := Resolve(conflictScan(), Options{
		ResolveConflict: func(key models.ConflictKey, group []models.Binding) (models.Binding, bool) {
			got = append(got, key)
			return group[0], true
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.ConflictKey{{Contract: repository, Lifetime: models.Transient}}, got)
}

func TestResolveDecoratorCompetesWithPlainBinding(t *testing.T) {
	scan := weatherChainScan()
	scan.Implementations = append(scan.Implementations, component("app.Backup", models.Scoped, forecaster))
	chain, err := Resolve(weatherChainScan(), Options{})
	require.NoError(t, err)

	t.Run("unresolved", func(t *testing.T) {
		_, err := Resolve(scan, Options{})
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrUnresolvedConflict), "got %v", err)

		var se errors.ServiceError
		require.True(t, stderrors.As(err, &se))
		assert.Equal(t, []models.ImplementationID{"app.D3", "app.Backup"}, se.Context()["candidates"])
	})

	t.Run("decorator kept", func(t *testing.T) {
		seq, err := Resolve(scan, Options{ResolveConflict: preferImpl("app.D3")})
		require.NoError(t, err)
		assert.Equal(t, chain.Bindings(), seq.Bindings())
	})

	t.Run("plain kept drops the chain", func(t *testing.T) {
		seq, err := Resolve(scan, Options{ResolveConflict: preferImpl("app.Backup")})
		require.NoError(t, err)
		assert.Equal(t, []models.Binding{models.NewBinding(forecaster, "app.Backup", models.Scoped)}, seq.Bindings())
	})
}

func TestResolveDecoratorConflictsOnlyWithinLifetime(t *testing.T) {
	scan := weatherChainScan()
	scan.Implementations = append(scan.Implementations, component("app.Backup", models.Transient, forecaster))

	seq, err := Resolve(scan, Options{})
	require.NoError(t, err)
	assert.Equal(t, 8, seq.Len())
}

func preferImpl(id models.ImplementationID) ConflictResolver {
	return func(_ models.ConflictKey, group []models.Binding) (models.Binding, bool) {
		for _, b := range group {
			if b.Implementation == id {
				return b, true
			}
		}
		return models.Binding{}, false
	}
}

func TestResolveRemapKeepsPosition(t *testing.T) {
	scan := models.ScanResult{
		Implementations: []models.ComponentMetadata{
			component("app.A", models.Transient, forecaster),
			component("app.B", models.Singleton, repository),
		},
	}
	seq, err := Resolve(scan, Options{
		RemapImplementation: func(b models.Binding) models.ImplementationID {
			if b.Implementation == "app.A" {
				return "app.A2"
			}
			return ""
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []models.Binding{
		models.NewBinding(forecaster, "app.A2", models.Transient),
		models.NewBinding(repository, "app.B", models.Singleton),
	}, seq.Bindings())
}

func TestResolveRemapPreservesMarker(t *testing.T) {
	seq, err := Resolve(weatherChainScan(), Options{
		RemapImplementation: func(b models.Binding) models.ImplementationID {
			if b.Implementation == "app.D1" {
				return "app.D1Fast"
			}
			return b.Implementation
		},
	})
	require.NoError(t, err)
	assert.Equal(t, decorated(forecaster, "app.D1Fast", "app.D2", models.Scoped), seq.At(3))
	assert.Equal(t, decorated(forecaster, "app.Weather", "app.D1", models.Scoped), seq.At(1))
	assert.Equal(t, 7, seq.Len())
}

func TestResolveRemapMovesAccessor(t *testing.T) {
	scan := models.ScanResult{
		Implementations: []models.ComponentMetadata{component("app.Weather", models.Scoped, forecaster)},
		Decorators:      []models.DecoratorLink{link("app.D1", "app.Weather", "app.Weather", forecaster, models.Scoped)},
	}
	seq, err := Resolve(scan, Options{
		RemapImplementation: func(b models.Binding) models.ImplementationID {
			if b.Implementation == "app.Weather" {
				return "app.Weather2"
			}
			return ""
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []models.Binding{
		outer(forecaster, "app.D1", "app.Weather", models.Scoped),
		decorated(forecaster, "app.Weather2", "app.D1", models.Scoped),
		{
			Contract:       models.AccessorContract("app.Weather"),
			Implementation: models.AccessorImplementation("app.Weather2"),
			Lifetime:       models.Scoped,
			Role:           models.AccessorBinding,
		},
	}, seq.Bindings())
}

func TestResolveIsDeterministic(t *testing.T) {
	first, err := Resolve(weatherChainScan(), Options{})
	require.NoError(t, err)
	second, err := Resolve(weatherChainScan(), Options{})
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func implementations(seq plan.Sequence) []models.ImplementationID {
	var out []models.ImplementationID
	for _, b := range seq.Bindings() {
		out = append(out, b.Implementation)
	}
	return out
}

func TestChainOrderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "decorators")
		lifetime := rapid.SampledFrom(models.Lifetimes).Draw(t, "lifetime")

		const base models.ImplementationID = "app.Base"
		wraps := base
		var links []models.DecoratorLink
		expected := []models.Binding{{}}
		for i := 1; i <= n; i++ {
			dec := models.ImplementationID(fmt.Sprintf("app.D%d", i))
			links = append(links, link(dec, wraps, base, forecaster, lifetime))
			expected = append(expected, decorated(forecaster, wraps, dec, lifetime), models.NewAccessorBinding(wraps, lifetime))
			expected[0] = outer(forecaster, dec, wraps, lifetime)
			wraps = dec
		}

		shuffled := rapid.Permutation(links).Draw(t, "scan order")
		seq, err := Resolve(models.ScanResult{
			Implementations: []models.ComponentMetadata{component(base, lifetime, forecaster)},
			Decorators:      shuffled,
		}, Options{})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got := seq.Bindings(); !plan.New(got...).Equal(plan.New(expected...)) {
			t.Fatalf("unexpected plan:\n%s", seq)
		}

		again, err := Resolve(models.ScanResult{
			Implementations: []models.ComponentMetadata{component(base, lifetime, forecaster)},
			Decorators:      shuffled,
		}, Options{})
		if err != nil || !again.Equal(seq) {
			t.Fatalf("resolution is not deterministic")
		}
	})
}

func TestConflictSurvivorProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 6).Draw(t, "candidates")
		keep := rapid.IntRange(0, n-1).Draw(t, "keep")

		var impls []models.ComponentMetadata
		for i := 0; i < n; i++ {
			impls = append(impls, component(models.ImplementationID(fmt.Sprintf("app.R%d", i)), models.Transient, repository))
			impls = append(impls, component(models.ImplementationID(fmt.Sprintf("app.S%d", i)), models.Singleton, models.ContractID(fmt.Sprintf("app.S%d", i))))
		}

		seq, err := Resolve(models.ScanResult{Implementations: impls}, Options{
			ResolveConflict: func(key models.ConflictKey, group []models.Binding) (models.Binding, bool) {
				if key.Contract != repository || key.Lifetime != models.Transient {
					t.Fatalf("unexpected conflict key %+v", key)
				}
				return group[keep], true
			},
		})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if seq.Len() != n+1 {
			t.Fatalf("expected %d bindings, got %d", n+1, seq.Len())
		}

		survivor := models.ImplementationID(fmt.Sprintf("app.R%d", keep))
		if pos := seq.IndexFunc(func(b models.Binding) bool { return b.Implementation == survivor }); pos != keep {
			t.Fatalf("survivor %s at %d, want %d", survivor, pos, keep)
		}
	})
}
