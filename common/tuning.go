package common

import "github.com/rotisserie/eris"

// ErrInvalidTuning is returned by Tuning.Validate.
var ErrInvalidTuning = eris.New("common: invalid tuning")

// Tuning holds every gameplay constant the simulation reads. Units are world
// pixels, seconds and pixels/second^2; forces are expressed as accelerations
// and scaled by body mass when applied.
type Tuning struct {
	TickHz  int     `yaml:"tick_hz"`
	Gravity float64 `yaml:"gravity"`

	PlayerDrag float64 `yaml:"player_drag"`
	MoveAccel  float64 `yaml:"move_accel"`

	EmoteJitter float64 `yaml:"emote_jitter"`
	MaxEmotes   int     `yaml:"max_emotes"`

	DefaultDensity float64 `yaml:"default_density"`

	BeamOffset          float64 `yaml:"beam_offset"`
	BeamNearWidth       float64 `yaml:"beam_near_width"`
	BeamFarWidth        float64 `yaml:"beam_far_width"`
	BeamRange           float64 `yaml:"beam_range"`
	BeamLiftAccel       float64 `yaml:"beam_lift_accel"`
	BeamMinFactor       float64 `yaml:"beam_min_factor"`
	BeamCenteringGain   float64 `yaml:"beam_centering_gain"`
	BeamMaxLateralAccel float64 `yaml:"beam_max_lateral_accel"`
	BeamPulseRadius     float64 `yaml:"beam_pulse_radius"`
	BeamPulseSpeed      float64 `yaml:"beam_pulse_speed"`

	GoalCaptureRadius float64 `yaml:"goal_capture_radius"`
	WinXP             int     `yaml:"win_xp"`
	XPPerLevel        int     `yaml:"xp_per_level"`

	TeleportCooldown float64 `yaml:"teleport_cooldown"`
	TeleportPrune    float64 `yaml:"teleport_prune"`
	TeleportMargin   float64 `yaml:"teleport_margin"`

	LowerBound float64 `yaml:"lower_bound"`
	FallbackX  float64 `yaml:"fallback_x"`
	FallbackY  float64 `yaml:"fallback_y"`

	SpringStiffnessScale float64 `yaml:"spring_stiffness_scale"`
	SpringDampingScale   float64 `yaml:"spring_damping_scale"`
}

// DefaultTuning returns the stock constants.
func DefaultTuning() Tuning {
	return Tuning{
		TickHz:  60,
		Gravity: 900,

		PlayerDrag: 2,
		MoveAccel:  1400,

		EmoteJitter: 30,
		MaxEmotes:   50,

		DefaultDensity: 0.001,

		BeamOffset:          20,
		BeamNearWidth:       40,
		BeamFarWidth:        160,
		BeamRange:           300,
		BeamLiftAccel:       2200,
		BeamMinFactor:       0.3,
		BeamCenteringGain:   3,
		BeamMaxLateralAccel: 600,
		BeamPulseRadius:     60,
		BeamPulseSpeed:      400,

		GoalCaptureRadius: 50,
		WinXP:             100,
		XPPerLevel:        1000,

		TeleportCooldown: 5,
		TeleportPrune:    1,
		TeleportMargin:   4,

		LowerBound: 2000,
		FallbackX:  400,
		FallbackY:  300,

		SpringStiffnessScale: 5000,
		SpringDampingScale:   50,
	}
}

// Step is the fixed simulation increment in seconds.
func (t Tuning) Step() float64 {
	if t.TickHz <= 0 {
		return 1.0 / 60.0
	}
	return 1.0 / float64(t.TickHz)
}

// Validate checks the invariants the engine depends on.
func (t Tuning) Validate() error {
	switch {
	case t.TickHz <= 0:
		return eris.Wrap(ErrInvalidTuning, "tick_hz must be positive")
	case t.TeleportCooldown <= 0:
		return eris.Wrap(ErrInvalidTuning, "teleport_cooldown must be positive")
	case t.TeleportPrune <= 0 || t.TeleportPrune >= t.TeleportCooldown:
		return eris.Wrap(ErrInvalidTuning, "teleport_prune must be positive and shorter than teleport_cooldown")
	case t.BeamRange <= 0:
		return eris.Wrap(ErrInvalidTuning, "beam_range must be positive")
	case t.XPPerLevel <= 0:
		return eris.Wrap(ErrInvalidTuning, "xp_per_level must be positive")
	}
	return nil
}
