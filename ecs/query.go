package ecs

import "github.com/milk9111/tractorbeam/ecs/component"

// Query returns the entities that carry every listed kind, iterating the
// smallest store.
func (w *World) Query(kinds ...component.Kind) []Entity {
	if len(kinds) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(kinds))
	for _, k := range kinds {
		s := w.store(k.ID(), false)
		if s == nil || s.Len() == 0 {
			return nil
		}
		sets = append(sets, s)
	}
	smallest := sets[0]
	for _, s := range sets[1:] {
		if s.Len() < smallest.Len() {
			smallest = s
		}
	}
	out := make([]Entity, 0, smallest.Len())
	for _, e := range smallest.denseEntities {
		keep := true
		for _, s := range sets {
			if s != smallest && !s.Has(e) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, e)
		}
	}
	return out
}

// First returns any entity carrying kind, for singleton components.
func (w *World) First(kind component.Kind) (Entity, bool) {
	s := w.store(kind.ID(), false)
	if s == nil || s.Len() == 0 {
		return 0, false
	}
	return s.denseEntities[0], true
}

// Count reports how many entities carry kind.
func (w *World) Count(kind component.Kind) int {
	s := w.store(kind.ID(), false)
	if s == nil {
		return 0
	}
	return s.Len()
}
