package predictor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Features is one product specification reduced to the attributes the model
// is trained on.
type Features struct {
	WeightPerMeter      float64
	TotalLength         float64
	MachiningComplexity string
	SurfaceTreatment    string
	Alloy               string
}

// TrainingRow is a feature set with its observed price.
type TrainingRow struct {
	Features
	Price float64
}

var ErrInvalidSpec = errors.New("invalid product spec")

const (
	colWeightPerMeter      = "weight_per_meter"
	colTotalLength         = "total_length"
	colMachiningComplexity = "machining_complexity"

	treatmentPrefix = "surface_treatment_"
	alloyPrefix     = "alloy_"
)

// encodeComplexity maps the ordinal complexity label to 1..3. Unrecognized
// labels fall back to medium rather than failing.
func encodeComplexity(label string) float64 {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "low":
		return 1
	case "medium":
		return 2
	case "high":
		return 3
	default:
		return 2
	}
}

func validateFeatures(f Features) error {
	if f.WeightPerMeter <= 0 {
		return fmt.Errorf("%w: weight_per_meter must be positive", ErrInvalidSpec)
	}
	if f.TotalLength <= 0 {
		return fmt.Errorf("%w: total_length must be positive", ErrInvalidSpec)
	}
	if strings.TrimSpace(f.SurfaceTreatment) == "" {
		return fmt.Errorf("%w: surface_treatment is required", ErrInvalidSpec)
	}
	if strings.TrimSpace(f.Alloy) == "" {
		return fmt.Errorf("%w: alloy is required", ErrInvalidSpec)
	}
	if strings.TrimSpace(f.MachiningComplexity) == "" {
		return fmt.Errorf("%w: machining_complexity is required", ErrInvalidSpec)
	}
	return nil
}

// buildColumns derives the feature schema from the categories present in the
// training data: the numeric columns in fixed order, then one-hot columns for
// surface treatment and alloy, each group sorted for determinism.
func buildColumns(rows []TrainingRow) []string {
	treatments := map[string]struct{}{}
	alloys := map[string]struct{}{}
	for _, row := range rows {
		treatments[strings.ToLower(strings.TrimSpace(row.SurfaceTreatment))] = struct{}{}
		alloys[strings.TrimSpace(row.Alloy)] = struct{}{}
	}

	columns := []string{colWeightPerMeter, colTotalLength, colMachiningComplexity}
	for _, value := range sortedKeys(treatments) {
		columns = append(columns, treatmentPrefix+value)
	}
	for _, value := range sortedKeys(alloys) {
		columns = append(columns, alloyPrefix+value)
	}
	return columns
}

// encode maps the features onto the schema's column order. One-hot columns for
// categories the schema does not know are simply never set; categories in the
// schema but absent from the input stay zero.
func encode(columns []string, f Features) []float64 {
	treatment := strings.ToLower(strings.TrimSpace(f.SurfaceTreatment))
	alloy := strings.TrimSpace(f.Alloy)

	vector := make([]float64, len(columns))
	for i, column := range columns {
		switch {
		case column == colWeightPerMeter:
			vector[i] = f.WeightPerMeter
		case column == colTotalLength:
			vector[i] = f.TotalLength
		case column == colMachiningComplexity:
			vector[i] = encodeComplexity(f.MachiningComplexity)
		case strings.HasPrefix(column, treatmentPrefix):
			if column == treatmentPrefix+treatment {
				vector[i] = 1
			}
		case strings.HasPrefix(column, alloyPrefix):
			if column == alloyPrefix+alloy {
				vector[i] = 1
			}
		}
	}
	return vector
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		if key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
