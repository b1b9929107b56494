package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RegisterGraphValidators registers the custom struct-tag validators
// GraphConfig relies on (edgepolicy, bandname, semver) with v.
func RegisterGraphValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("edgepolicy", validateEdgePolicyKind); err != nil {
		return fmt.Errorf("failed to register edgepolicy validator: %w", err)
	}
	if err := v.RegisterValidation("bandname", validateBandName); err != nil {
		return fmt.Errorf("failed to register bandname validator: %w", err)
	}
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	return nil
}

// validateEdgePolicyKind checks that a PolicyConfig.Kind names one of the
// four overflow behaviors an Edge supports.
func validateEdgePolicyKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "block", "drop", "latest", "coalesce":
		return true
	default:
		return false
	}
}

// validateBandName checks that a NodeConfig.Band names one of the
// scheduler's three priority lanes.
func validateBandName(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "control", "high", "normal":
		return true
	default:
		return false
	}
}

// validateSemver checks a three-part "major.minor.patch" version string,
// matching the teacher's lightweight Sscanf-based check rather than pulling
// in a dedicated semver dependency for one struct tag.
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3
}

// parseBand converts a validated NodeConfig.Band string into a Band,
// defaulting an empty string to NormalBand.
func parseBand(name string) Band {
	switch name {
	case "control":
		return ControlBand
	case "high":
		return HighBand
	default:
		return NormalBand
	}
}
