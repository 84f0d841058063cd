package system

import (
	"testing"

	"github.com/rotisserie/eris"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs/component"
)

func TestNewCooldownsRequiresShorterPrune(t *testing.T) {
	cases := []struct {
		name          string
		window, prune float64
		ok            bool
	}{
		{"shorter", 5, 1, true},
		{"equal", 5, 5, false},
		{"longer", 5, 6, false},
		{"zero_prune", 5, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewCooldowns(c.window, c.prune)
			if (err == nil) != c.ok {
				t.Fatalf("NewCooldowns(%v,%v) err=%v", c.window, c.prune, err)
			}
			if err != nil && !eris.Is(err, common.ErrInvalidTuning) {
				t.Fatalf("expected ErrInvalidTuning, got %v", err)
			}
		})
	}
}

func TestCooldownsNeverReleaseEarly(t *testing.T) {
	const step = 1.0 / 60.0
	cd, err := NewCooldowns(5, 1)
	if err != nil {
		t.Fatal(err)
	}
	cd.Start("marble-a", 0)
	cd.Start("marble-b", 2)

	for tick := 0; tick <= 10*60; tick++ {
		now := float64(tick) * step
		cd.Sweep(now)
		if now < 5 && cd.Ready("marble-a", now) {
			t.Fatalf("marble-a released early at %.3fs", now)
		}
		if now < 7 && now >= 2 && cd.Ready("marble-b", now) {
			t.Fatalf("marble-b released early at %.3fs", now)
		}
	}
	if !cd.Ready("marble-a", 10) || !cd.Ready("marble-b", 10) {
		t.Fatalf("both cooldowns should have ended")
	}
	if cd.Len() != 0 {
		t.Fatalf("expired entries should be pruned, %d left", cd.Len())
	}
}

func TestCooldownSweepIsRateLimited(t *testing.T) {
	cd, err := NewCooldowns(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	cd.Start("x", 0)
	if n := cd.Sweep(2.5); n != 1 {
		t.Fatalf("expected 1 pruned, got %d", n)
	}
	cd.Start("y", 0)
	if n := cd.Sweep(3.0); n != 0 {
		t.Fatalf("sweep inside prune interval should be skipped, got %d", n)
	}
	if n := cd.Sweep(3.5); n != 1 {
		t.Fatalf("expected y pruned after interval, got %d", n)
	}
}

func TestAwardXP(t *testing.T) {
	cases := []struct {
		name      string
		xp, level int
		award     int
		wantXP    int
		wantLevel int
		levelled  bool
	}{
		{"below_threshold", 0, 1, 100, 100, 1, false},
		{"reaches_threshold", 900, 1, 100, 0, 2, true},
		{"overflow_one_level_only", 0, 1, 5000, 0, 2, true},
		{"higher_level_threshold", 1500, 2, 100, 1600, 2, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := &component.Player{XP: c.xp, Level: c.level}
			got := AwardXP(p, c.award, 1000)
			if got != c.levelled || p.XP != c.wantXP || p.Level != c.wantLevel {
				t.Fatalf("got levelled=%v xp=%d level=%d", got, p.XP, p.Level)
			}
		})
	}
}

func TestInputDirectionSumsDiagonals(t *testing.T) {
	cases := []struct {
		name string
		in   component.Input
		want common.Vec
	}{
		{"idle", component.Input{}, common.Vec{}},
		{"up", component.Input{Up: true}, common.Vec{Y: -1}},
		{"up_right", component.Input{Up: true, Right: true}, common.Vec{X: 1, Y: -1}},
		{"opposed", component.Input{Left: true, Right: true, Down: true}, common.Vec{Y: 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := InputDirection(c.in); got != c.want {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestBeamGeometry(t *testing.T) {
	tuning := common.DefaultTuning()
	cone := BeamCone(common.Vec{X: 500, Y: 500}, tuning)
	if len(cone) != 4 {
		t.Fatalf("expected trapezoid, got %v", cone)
	}
	if cone[0].Y != 500+tuning.BeamOffset || cone[2].Y != 500+tuning.BeamOffset+tuning.BeamRange {
		t.Fatalf("cone not anchored below craft: %v", cone)
	}
	if nearW, farW := cone[1].X-cone[0].X, cone[2].X-cone[3].X; nearW >= farW {
		t.Fatalf("cone should widen with distance: near=%v far=%v", nearW, farW)
	}

	if f := BeamFactor(0, tuning); f != 1 {
		t.Fatalf("factor at craft should be 1, got %v", f)
	}
	if f := BeamFactor(tuning.BeamRange*2, tuning); f != tuning.BeamMinFactor {
		t.Fatalf("factor should floor at %v, got %v", tuning.BeamMinFactor, f)
	}
	if BeamFactor(50, tuning) <= BeamFactor(150, tuning) {
		t.Fatalf("closer objects should get a stronger pull")
	}
}
