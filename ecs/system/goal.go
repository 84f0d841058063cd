package system

import (
	"go.uber.org/zap"

	"github.com/milk9111/tractorbeam/common"
	"github.com/milk9111/tractorbeam/ecs"
	"github.com/milk9111/tractorbeam/ecs/component"
)

// GoalSystem ends the level when any marble reaches a goal. Every connected
// player is rewarded, not only the one who pushed the marble. A level can be
// won once per load.
type GoalSystem struct {
	tuning common.Tuning
	log    *zap.Logger
}

func NewGoalSystem(tuning common.Tuning, log *zap.Logger) *GoalSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &GoalSystem{tuning: tuning, log: log}
}

func (s *GoalSystem) Update(w *ecs.World) {
	st := CurrentLevel(w)
	if st == nil || st.Completed {
		return
	}

	var marbles []ecs.Entity
	ecs.ForEach(w, component.FreeBodyComponent.Kind(), func(e ecs.Entity, fb *component.FreeBody) {
		if fb.Type == component.FreeBodyMarble {
			marbles = append(marbles, e)
		}
	})
	if len(marbles) == 0 {
		return
	}

	ecs.ForEach2(w, component.GoalComponent.Kind(), component.TransformComponent.Kind(), func(goalEnt ecs.Entity, g *component.Goal, gt *component.Transform) {
		if st.Completed {
			return
		}
		goalPos := common.Vec{X: gt.X, Y: gt.Y}
		for _, m := range marbles {
			mt, ok := ecs.Get(w, m, component.TransformComponent.Kind())
			if !ok {
				continue
			}
			if (common.Vec{X: mt.X, Y: mt.Y}).Dist(goalPos) > s.tuning.GoalCaptureRadius {
				continue
			}
			st.Completed = true
			s.win(w, st.Name, IDOf(w, goalEnt), IDOf(w, m), g.NextLevel)
			return
		}
	})
}

func (s *GoalSystem) win(w *ecs.World, level, goalID, marbleID, next string) {
	s.log.Info("level complete",
		zap.String("level", level),
		zap.String("goal", goalID),
		zap.String("marble", marbleID),
		zap.String("next", next))

	ecs.ForEach2(w, component.IdentityComponent.Kind(), component.PlayerComponent.Kind(), func(e ecs.Entity, id *component.Identity, p *component.Player) {
		if AwardXP(p, s.tuning.WinXP, s.tuning.XPPerLevel) {
			s.log.Info("player levelled up", zap.String("player", id.ID), zap.Int("level", p.Level))
			w.Events().Push(ecs.Event{Type: ecs.EventLevelUp, Data: ecs.LevelUpEvent{PlayerID: id.ID, Level: p.Level}})
		}
	})

	w.Events().Push(ecs.Event{Type: ecs.EventLevelComplete, Data: ecs.LevelCompleteEvent{
		Level: level, GoalID: goalID, MarbleID: marbleID, NextLevel: next,
	}})
	if next != "" {
		w.Events().Push(ecs.Event{Type: ecs.EventLevelTransition, Data: ecs.LevelTransitionEvent{NextLevel: next}})
	}
}

// AwardXP adds xp and applies at most one level-up. It reports whether the
// player levelled.
func AwardXP(p *component.Player, xp, perLevel int) bool {
	p.XP += xp
	if p.XP >= p.Level*perLevel {
		p.XP = 0
		p.Level++
		return true
	}
	return false
}
