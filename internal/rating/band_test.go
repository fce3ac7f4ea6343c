package rating

import (
	"testing"

	"alrater/internal/apperr"
	"alrater/internal/model"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBand(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		bands []model.Band
		want  string
	}{
		{"age lower edge", 18, DefaultAgeBands(), "18-24"},
		{"age upper edge", 24, DefaultAgeBands(), "18-24"},
		{"age middle", 44, DefaultAgeBands(), "35-49"},
		{"age open ended", 90, DefaultAgeBands(), "65+"},
		{"experience zero", 0, DefaultExperienceBands(), "0-2"},
		{"experience ten", 10, DefaultExperienceBands(), "6-10"},
		{"mvr zero", 0, DefaultMVRBands(), "0"},
		{"mvr five", 5, DefaultMVRBands(), "5+"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBand(tt.value, tt.bands)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveBandNotFound(t *testing.T) {
	_, err := ResolveBand(17, DefaultAgeBands())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrBandNotFound)
	assert.ErrorIs(t, err, apperr.ErrFactorNotFound)

	_, err = ResolveBand(2.5, DefaultExperienceBands())
	assert.ErrorIs(t, err, apperr.ErrBandNotFound, "gaps between bands do not match")
}

func TestResolveBandFirstMatchWins(t *testing.T) {
	bands := []model.Band{
		band("low", bound(0), bound(10)),
		band("overlap", bound(5), bound(20)),
	}
	got, err := ResolveBand(7, bands)
	require.NoError(t, err)
	assert.Equal(t, "low", got)
}

func TestValidateBands(t *testing.T) {
	require.NoError(t, ValidateBands("age", DefaultAgeBands()))
	require.NoError(t, ValidateBands("experience", DefaultExperienceBands()))
	require.NoError(t, ValidateBands("mvr", DefaultMVRBands()))

	assert.NoError(t, ValidateBands("x", []model.Band{
		band("under", nil, bound(5)),
		band("rest", bound(6), nil),
	}))

	tests := []struct {
		name  string
		bands []model.Band
	}{
		{"missing label", []model.Band{band("", bound(1), bound(2))}},
		{"no bounds", []model.Band{band("a", nil, nil)}},
		{"out of order", []model.Band{band("a", bound(10), nil), band("b", bound(5), bound(9))}},
		{"unbounded min after bounded", []model.Band{band("a", bound(1), bound(2)), band("b", nil, bound(9))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateBands("x", tt.bands))
		})
	}
}

func TestDefaultBandsTotalWithinDomain(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	sets := map[string][]model.Band{
		"age":        DefaultAgeBands(),
		"experience": DefaultExperienceBands(),
		"mvr":        DefaultMVRBands(),
	}
	for name, bands := range sets {
		bands := bands
		lower := int(*bands[0].Min)

		properties.Property(name+" bands resolve every integer at or above the first min", prop.ForAll(
			func(v int) bool {
				label, err := ResolveBand(float64(v), bands)
				if err != nil || label == "" {
					return false
				}
				matches := 0
				for _, b := range bands {
					if b.Contains(float64(v)) {
						matches++
					}
				}
				return matches == 1
			},
			gen.IntRange(lower, lower+500),
		))

		properties.Property(name+" bands reject values below the first min", prop.ForAll(
			func(v int) bool {
				_, err := ResolveBand(float64(v), bands)
				return err != nil
			},
			gen.IntRange(lower-500, lower-1),
		))
	}

	properties.TestingRun(t)
}
