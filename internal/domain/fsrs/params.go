package fsrs

// Difficulty bounds. Difficulty is clamped into [MinDifficulty, MaxDifficulty]
// after every update; DefaultDifficulty is assigned to never-graded cards.
const (
	MinDifficulty     = 1.0
	MaxDifficulty     = 10.0
	DefaultDifficulty = 5.0
)

// Retrievability curve constants from the published FSRS model:
// R(t) = (1 + factor * t/S)^decay. With decay = -0.5 and factor = 19/81 the
// interval that hits 90% retention equals the stability itself.
const (
	retrievabilityDecay  = -0.5
	retrievabilityFactor = 19.0 / 81.0
)

// Params holds every tunable constant of the scheduling algorithm. The exact
// growth and penalty values are calibration targets, not derived truths, so
// all of them can be overridden through ParamsConfig.
type Params struct {
	// Stability assigned on the very first grading.
	InitialStabilityGood  float64
	InitialStabilityAgain float64

	// Learning steps, in minutes. A card graduates from learning to review
	// after it has been graded more than len(LearningStepMinutes) times.
	LearningStepMinutes []int

	// Relearning step after a lapse, in minutes.
	RelearnStepMinutes int

	// Target recall probability used to map stability to an interval.
	DesiredRetention float64

	// Interval bounds in days for review/relearning graduations.
	MinIntervalDays int
	MaxIntervalDays int

	// Stability growth on a successful review:
	// S' = S * (1 + GrowthRate * (11-D)/10 * S^GrowthStabilityPower * e^(1-R)).
	GrowthRate           float64
	GrowthStabilityPower float64

	// Stability penalty on a failed grading. Stability never drops below
	// MinStability.
	ForgetStabilityFactor float64
	MinStability          float64

	// Difficulty drift: raised on failure, lowered slightly on success.
	LapseDifficultyPenalty float64
	RecallDifficultyBonus  float64
}

// ParamsConfig overrides individual defaults. Zero values leave the
// corresponding default in place.
type ParamsConfig struct {
	InitialStabilityGood   float64
	InitialStabilityAgain  float64
	LearningStepMinutes    []int
	RelearnStepMinutes     int
	DesiredRetention       float64
	MaxIntervalDays        int
	GrowthRate             float64
	ForgetStabilityFactor  float64
	LapseDifficultyPenalty float64
	RecallDifficultyBonus  float64
}

// NewDefaultParams returns the default parameter set.
func NewDefaultParams() *Params {
	return &Params{
		InitialStabilityGood:  2.5,
		InitialStabilityAgain: 0.6,

		LearningStepMinutes: []int{10, 60},
		RelearnStepMinutes:  10,

		DesiredRetention: 0.9,
		MinIntervalDays:  1,
		MaxIntervalDays:  36500,

		GrowthRate:           3.0,
		GrowthStabilityPower: -0.1,

		ForgetStabilityFactor: 0.3,
		MinStability:          0.1,

		LapseDifficultyPenalty: 1.0,
		RecallDifficultyBonus:  0.1,
	}
}

// NewParams builds a Params from defaults plus any non-zero overrides.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.InitialStabilityGood > 0 {
		params.InitialStabilityGood = config.InitialStabilityGood
	}
	if config.InitialStabilityAgain > 0 {
		params.InitialStabilityAgain = config.InitialStabilityAgain
	}
	if len(config.LearningStepMinutes) > 0 {
		params.LearningStepMinutes = config.LearningStepMinutes
	}
	if config.RelearnStepMinutes > 0 {
		params.RelearnStepMinutes = config.RelearnStepMinutes
	}
	if config.DesiredRetention > 0 && config.DesiredRetention < 1 {
		params.DesiredRetention = config.DesiredRetention
	}
	if config.MaxIntervalDays > 0 {
		params.MaxIntervalDays = config.MaxIntervalDays
	}
	if config.GrowthRate > 0 {
		params.GrowthRate = config.GrowthRate
	}
	if config.ForgetStabilityFactor > 0 {
		params.ForgetStabilityFactor = config.ForgetStabilityFactor
	}
	if config.LapseDifficultyPenalty > 0 {
		params.LapseDifficultyPenalty = config.LapseDifficultyPenalty
	}
	if config.RecallDifficultyBonus > 0 {
		params.RecallDifficultyBonus = config.RecallDifficultyBonus
	}

	return params
}
