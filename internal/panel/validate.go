package panel

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"github.com/kotfilip/ds-consulting-project/internal/dataprocessing"
	apperrors "github.com/kotfilip/ds-consulting-project/internal/errors"
)

// validateOptions rejects malformed regression specifications
func validateOptions(opts Options) error {
	if strings.TrimSpace(opts.Dependent) == "" {
		return apperrors.NewValidationError("dependent variable is required")
	}
	if len(opts.Covariates) == 0 {
		return apperrors.NewValidationError("at least one covariate is required")
	}
	if opts.ConfidenceLevel <= 0 || opts.ConfidenceLevel >= 1 {
		return apperrors.NewValidationError(fmt.Sprintf("confidence level %v must be in (0, 1)", opts.ConfidenceLevel))
	}

	seen := make(map[string]bool, len(opts.Covariates))
	for _, name := range opts.Covariates {
		switch {
		case name == "":
			return apperrors.NewValidationError("covariate names must not be empty")
		case name == ConstName:
			return apperrors.NewValidationError(fmt.Sprintf("%q is reserved for the intercept", ConstName))
		case name == opts.Dependent:
			return apperrors.NewValidationError(fmt.Sprintf("dependent variable %q cannot be a covariate", name))
		case name == dataprocessing.ColRegion || name == dataprocessing.ColYear:
			return apperrors.NewValidationError(fmt.Sprintf("index column %q cannot be a covariate", name))
		case seen[name]:
			return apperrors.NewValidationError(fmt.Sprintf("covariate %q listed twice", name))
		}
		seen[name] = true
	}
	return nil
}

// validateColumns checks that every column the model needs is present
func validateColumns(df dataframe.DataFrame, opts Options) error {
	present := make(map[string]bool)
	for _, name := range df.Names() {
		present[name] = true
	}

	want := append([]string{dataprocessing.ColRegion, dataprocessing.ColYear, opts.Dependent}, opts.Covariates...)
	var missing []string
	for _, name := range want {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError(
			fmt.Sprintf("data is missing model columns %s", strings.Join(missing, ", "))).
			WithContext("columns", df.Names())
	}
	return nil
}

// validateFinite rejects missing or non-finite cells, which only appear when
// the table skipped preprocessing
func validateFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.NewValidationError(
				fmt.Sprintf("column %s has a missing or non-finite value at row %d", name, i+1))
		}
	}
	return nil
}
