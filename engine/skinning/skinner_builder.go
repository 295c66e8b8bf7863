package skinning

// SkinnerBuilderOption is a functional option for configuring a Skinner during construction.
type SkinnerBuilderOption func(*skinner)

// WithWeightMode is an option builder that selects how vertex weights are combined.
// The default is WeightModeRaw.
//
// Parameters:
//   - mode: WeightModeRaw or WeightModeNormalized
//
// Returns:
//   - SkinnerBuilderOption: a function that applies the weight mode option to a skinner
func WithWeightMode(mode WeightMode) SkinnerBuilderOption {
	return func(s *skinner) {
		s.weightMode = mode
	}
}
