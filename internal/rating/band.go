package rating

import (
	"fmt"
	"strconv"

	"alrater/internal/apperr"
	"alrater/internal/model"
)

// ResolveBand returns the label of the first band containing value.
func ResolveBand(value float64, bands []model.Band) (string, error) {
	for _, b := range bands {
		if b.Contains(value) {
			return b.Label, nil
		}
	}
	return "", fmt.Errorf("%w: no band matches value %s", apperr.ErrBandNotFound, strconv.FormatFloat(value, 'f', -1, 64))
}

// ValidateBands checks that every band has a label and at least one bound,
// and that bands are ordered by non-decreasing min. Bands without a min must
// come first.
func ValidateBands(name string, bands []model.Band) error {
	seenMin := false
	var lastMin float64
	for i, b := range bands {
		if b.Label == "" {
			return fmt.Errorf("%s band %d has no label", name, i+1)
		}
		if b.Min == nil && b.Max == nil {
			return fmt.Errorf("%s band %q must set min or max", name, b.Label)
		}
		if b.Min == nil {
			if seenMin {
				return fmt.Errorf("%s band %q without min must precede bounded bands", name, b.Label)
			}
			continue
		}
		if seenMin && *b.Min < lastMin {
			return fmt.Errorf("%s bands out of order at %q", name, b.Label)
		}
		seenMin = true
		lastMin = *b.Min
	}
	return nil
}

func bound(v float64) *float64 { return &v }

func band(label string, min, max *float64) model.Band {
	return model.Band{Label: label, Min: min, Max: max}
}

func DefaultAgeBands() []model.Band {
	return []model.Band{
		band("18-24", bound(18), bound(24)),
		band("25-34", bound(25), bound(34)),
		band("35-49", bound(35), bound(49)),
		band("50-64", bound(50), bound(64)),
		band("65+", bound(65), nil),
	}
}

func DefaultExperienceBands() []model.Band {
	return []model.Band{
		band("0-2", bound(0), bound(2)),
		band("3-5", bound(3), bound(5)),
		band("6-10", bound(6), bound(10)),
		band("11+", bound(11), nil),
	}
}

func DefaultMVRBands() []model.Band {
	return []model.Band{
		band("0", bound(0), bound(0)),
		band("1-2", bound(1), bound(2)),
		band("3-4", bound(3), bound(4)),
		band("5+", bound(5), nil),
	}
}

// DefaultBands is used when a workbook carries no attribute lookups.
func DefaultBands() model.AttributeBands {
	return model.AttributeBands{
		Age:        DefaultAgeBands(),
		Experience: DefaultExperienceBands(),
		MVR:        DefaultMVRBands(),
	}
}
