package scanner

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/servicereg/internal/errors"
	"github.com/toyz/servicereg/internal/models"
)

const forecaster models.ContractID = "app.Forecaster"

func impl(id models.ImplementationID, lifetime models.Lifetime, contracts ...models.ContractID) models.TypeDescriptor {
	return models.TypeDescriptor{ID: id, Unit: "app", Kind: models.ImplementationKind, Lifetime: lifetime, Contracts: contracts}
}

func decorator(id, wraps models.ImplementationID, contracts ...models.ContractID) models.TypeDescriptor {
	return models.TypeDescriptor{ID: id, Unit: "app", Kind: models.DecoratorKind, Wraps: wraps, Contracts: contracts}
}

func TestScanSingleImplementation(t *testing.T) {
	result, err := Scan([]models.TypeDescriptor{impl("app.Weather", models.Singleton, forecaster)}, Options{})
	require.NoError(t, err)

	require.Len(t, result.Implementations, 1)
	assert.Equal(t, models.ComponentMetadata{
		ID:        "app.Weather",
		Contracts: []models.ContractID{forecaster},
		Lifetime:  models.Singleton,
		Unit:      "app",
	}, result.Implementations[0])
	assert.Empty(t, result.Decorators)
}

func TestScanSkipsIgnoredFilteredAndPlainTypes(t *testing.T) {
	candidates := []models.TypeDescriptor{
		impl("app.A", models.Transient, forecaster),
		{ID: "app.Ignored", Kind: models.IgnoredKind, Contracts: []models.ContractID{forecaster}},
		{ID: "app.Plain"},
		{ID: "vendor.V", Unit: "vendor", Kind: models.ImplementationKind, Contracts: []models.ContractID{forecaster}},
		impl("app.Skip", models.Transient, forecaster),
	}

	result, err := Scan(candidates, Options{
		UnitFilter: func(unit string) bool { return unit != "vendor" },
		TypeFilter: func(td models.TypeDescriptor) bool { return td.ID != "app.Skip" },
	})
	require.NoError(t, err)

	require.Len(t, result.Implementations, 1)
	assert.Equal(t, models.ImplementationID("app.A"), result.Implementations[0].ID)
}

func TestScanDuplicateImplementation(t *testing.T) {
	_, err := Scan([]models.TypeDescriptor{
		impl("app.A", models.Transient, forecaster),
		impl("app.A", models.Scoped, forecaster),
	}, Options{})
	assert.True(t, stderrors.Is(err, errors.ErrDuplicateImplementation))
}

func TestScanDecoratorChainFindsContract(t *testing.T) {
	candidates := []models.TypeDescriptor{
		decorator("app.D3", "app.D2", forecaster),
		impl("app.Weather", models.Scoped, forecaster),
		decorator("app.D1", "app.Weather", forecaster),
		decorator("app.D2", "app.D1", forecaster),
	}

	result, err := Scan(candidates, Options{})
	require.NoError(t, err)

	require.Len(t, result.Decorators, 3)
	assert.Equal(t, models.DecoratorLink{
		Decorator: "app.D3", Wraps: "app.D2", Contract: forecaster, Base: "app.Weather", Lifetime: models.Scoped,
	}, result.Decorators[0])
	for _, link := range result.Decorators {
		assert.Equal(t, forecaster, link.Contract)
		assert.Equal(t, models.ImplementationID("app.Weather"), link.Base)
	}
}

func TestScanDecoratorOfFilteredImplementation(t *testing.T) {
	result, err := Scan([]models.TypeDescriptor{
		impl("app.Weather", models.Transient, forecaster),
		decorator("app.D1", "app.Weather", forecaster),
	}, Options{TypeFilter: func(td models.TypeDescriptor) bool { return td.Kind == models.DecoratorKind }})
	require.NoError(t, err)

	assert.Empty(t, result.Implementations)
	require.Len(t, result.Decorators, 1)
	assert.Equal(t, forecaster, result.Decorators[0].Contract)
}

func TestScanDecoratorErrors(t *testing.T) {
	tests := []struct {
		name       string
		candidates []models.TypeDescriptor
		target     error
	}{
		{
			name:       "wrapped component not declared",
			candidates: []models.TypeDescriptor{decorator("app.D", "app.Missing", forecaster)},
			target:     errors.ErrMissingContract,
		},
		{
			name: "wrapped component has no metadata",
			candidates: []models.TypeDescriptor{
				{ID: "app.Plain", Contracts: []models.ContractID{forecaster}},
				decorator("app.D", "app.Plain", forecaster),
			},
			target: errors.ErrMissingContract,
		},
		{
			name:       "decorator wraps nothing",
			candidates: []models.TypeDescriptor{decorator("app.D", "", forecaster)},
			target:     errors.ErrMissingContract,
		},
		{
			name: "decorator does not implement contract",
			candidates: []models.TypeDescriptor{
				impl("app.Weather", models.Transient, forecaster),
				decorator("app.D", "app.Weather", "app.Other"),
			},
			target: errors.ErrContractMismatch,
		},
		{
			name: "terminal implementation is ambiguous",
			candidates: []models.TypeDescriptor{
				impl("app.Weather", models.Transient, forecaster, "app.Other"),
				decorator("app.D", "app.Weather", forecaster),
			},
			target: errors.ErrAmbiguousContract,
		},
		{
			name: "decorators wrap each other",
			candidates: []models.TypeDescriptor{
				decorator("app.D1", "app.D2", forecaster),
				decorator("app.D2", "app.D1", forecaster),
			},
			target: errors.ErrAmbiguousDecoratorChain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Scan(tt.candidates, Options{})
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.target), "got %v", err)
			assert.True(t, result.IsEmpty())
		})
	}
}

func TestScanExplicitContractMustBeExposed(t *testing.T) {
	td := impl("app.Weather", models.Transient, forecaster)
	td.Contract = "app.Other"

	_, err := Scan([]models.TypeDescriptor{td}, Options{})
	assert.True(t, stderrors.Is(err, errors.ErrContractMismatch))

	td.Contract = forecaster
	result, err := Scan([]models.TypeDescriptor{td}, Options{})
	require.NoError(t, err)
	assert.True(t, result.Implementations[0].HasExplicitContract())
}

func TestContractOf(t *testing.T) {
	c, err := ContractOf("a", "", []models.ContractID{"I"})
	require.NoError(t, err)
	assert.Equal(t, models.ContractID("I"), c)

	c, err = ContractOf("a", "J", []models.ContractID{"I", "K"})
	require.NoError(t, err)
	assert.Equal(t, models.ContractID("J"), c)

	_, err = ContractOf("a", "", nil)
	assert.Equal(t, errors.MissingContractErrorCode, errors.CodeOf(err))

	_, err = ContractOf("a", "", []models.ContractID{"I", "K"})
	assert.Equal(t, errors.AmbiguousContractErrorCode, errors.CodeOf(err))
}
