package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for ComputeViewModel
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*Settings)

// Settings are the tunable constants of the engine.
type Settings struct {
	MinTopN     int // lower clamp for ranked panels
	MaxTopN     int // upper clamp for ranked panels
	DefaultTopN int // used when the requested N is not a number

	// Minimum order counts a candidate needs to be eligible for the
	// storyline presets. Empirical values; override per dataset.
	StateMinOrders float64
	CellMinOrders  float64

	MaxCellOrders int // detail rows returned for the selected cell; 0 = all
}

// Defaults for Settings.
const (
	DefaultMinTopN        = 3
	DefaultMaxTopN        = 30
	DefaultTopN           = 12
	DefaultStateMinOrders = 300
	DefaultCellMinOrders  = 100
	DefaultMaxCellOrders  = 200
)

// WithTopNBounds sets the clamp range and the fallback for ranked panels.
func WithTopNBounds(min, max, def int) Option {
	return func(s *Settings) {
		if min > 0 {
			s.MinTopN = min
		}
		if max >= s.MinTopN {
			s.MaxTopN = max
		}
		if def > 0 {
			s.DefaultTopN = def
		}
	}
}

// WithSupportThresholds sets the minimum order support for the state-level
// and cell-level presets.
func WithSupportThresholds(state, cell float64) Option {
	return func(s *Settings) {
		s.StateMinOrders = state
		s.CellMinOrders = cell
	}
}

// WithMaxCellOrders caps the detail rows of the selected cell.
func WithMaxCellOrders(n int) Option {
	return func(s *Settings) {
		s.MaxCellOrders = n
	}
}

// NewSettings applies options over the defaults.
func NewSettings(opts ...Option) Settings {
	s := Settings{
		MinTopN:        DefaultMinTopN,
		MaxTopN:        DefaultMaxTopN,
		DefaultTopN:    DefaultTopN,
		StateMinOrders: DefaultStateMinOrders,
		CellMinOrders:  DefaultCellMinOrders,
		MaxCellOrders:  DefaultMaxCellOrders,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.DefaultTopN < s.MinTopN {
		s.DefaultTopN = s.MinTopN
	}
	if s.DefaultTopN > s.MaxTopN {
		s.DefaultTopN = s.MaxTopN
	}
	return s
}
