package levels

import (
	"fmt"
	"strconv"
)

// Warning codes.
const (
	WarnDuplicateID       = "duplicate_id"
	WarnMissingEndpoint   = "missing_endpoint"
	WarnMissingTeleporter = "missing_teleporter_target"
	WarnSelfTeleporter    = "self_teleporter_target"
	WarnBadShape          = "bad_shape"
	WarnGoalNoNext        = "goal_without_next_level"
	WarnStaticJoint       = "static_joint"
	WarnSkippedObject     = "skipped_object"
	WarnSkippedConnection = "skipped_connection"
)

// Warning reports a recoverable problem with level data.
type Warning struct {
	Code     string `json:"code"`
	ObjectID string `json:"objectId,omitempty"`
	Message  string `json:"message"`
}

func (w Warning) String() string {
	if w.ObjectID == "" {
		return w.Code + ": " + w.Message
	}
	return w.Code + " [" + w.ObjectID + "]: " + w.Message
}

// Repair renames every object whose id collides with an earlier object (or is
// empty) to a fresh "<id>_<n>" id, in place. Connections and teleporter targets
// that pointed at the old id are rewritten to the renamed object.
func Repair(lvl *Level) []Warning {
	if lvl == nil {
		return nil
	}
	var warnings []Warning
	seen := make(map[string]bool, len(lvl.Objects))
	for i := range lvl.Objects {
		seen[lvl.Objects[i].ID] = false
	}
	used := make(map[string]bool, len(lvl.Objects))

	for i := range lvl.Objects {
		obj := &lvl.Objects[i]
		if obj.ID != "" && !used[obj.ID] {
			used[obj.ID] = true
			continue
		}

		old := obj.ID
		base := old
		if base == "" {
			base = "object"
		}
		fresh := uniqueID(base, used, seen)
		used[fresh] = true
		obj.ID = fresh

		rewritten := 0
		for c := 0; old != "" && c < len(lvl.Connections); c++ {
			conn := &lvl.Connections[c]
			if conn.BodyA == old {
				conn.BodyA = fresh
				rewritten++
			}
			if conn.BodyB == old {
				conn.BodyB = fresh
				rewritten++
			}
		}
		for j := range lvl.Objects {
			if j != i && old != "" && lvl.Objects[j].TeleporterTarget == old {
				lvl.Objects[j].TeleporterTarget = fresh
			}
		}
		warnings = append(warnings, Warning{
			Code:     WarnDuplicateID,
			ObjectID: fresh,
			Message:  fmt.Sprintf("object %d renamed from %q (%d connection endpoints rewritten)", i, old, rewritten),
		})
	}
	return warnings
}

func uniqueID(base string, used map[string]bool, original map[string]bool) string {
	for n := 1; ; n++ {
		id := base + "_" + strconv.Itoa(n)
		if _, taken := original[id]; taken {
			continue
		}
		if !used[id] {
			return id
		}
	}
}

// Validate reports dangling references and malformed shapes without changing
// the level. Run Repair first; duplicate ids are not reported here.
func Validate(lvl *Level) []Warning {
	if lvl == nil {
		return nil
	}
	var warnings []Warning
	ids := make(map[string]*Object, len(lvl.Objects))
	for i := range lvl.Objects {
		ids[lvl.Objects[i].ID] = &lvl.Objects[i]
	}

	for i := range lvl.Objects {
		obj := &lvl.Objects[i]
		switch s := obj.Shape.(type) {
		case Circle:
			if s.Radius <= 0 {
				warnings = append(warnings, Warning{WarnBadShape, obj.ID, "circle radius must be positive"})
			}
		case Rect:
			if s.Width <= 0 || s.Height <= 0 {
				warnings = append(warnings, Warning{WarnBadShape, obj.ID, "rectangle width and height must be positive"})
			}
		default:
			warnings = append(warnings, Warning{WarnBadShape, obj.ID, "object has no shape"})
		}

		if obj.Tags.Has(TagGoal) && obj.NextLevel == "" {
			warnings = append(warnings, Warning{WarnGoalNoNext, obj.ID, "goal has no next level; winning will not change level"})
		}
		if obj.Tags.Has(TagTeleporter) {
			switch target := obj.TeleporterTarget; {
			case target == "":
				warnings = append(warnings, Warning{WarnMissingTeleporter, obj.ID, "teleporter has no target"})
			case target == obj.ID:
				warnings = append(warnings, Warning{WarnSelfTeleporter, obj.ID, "teleporter targets itself"})
			case ids[target] == nil:
				warnings = append(warnings, Warning{WarnMissingTeleporter, obj.ID, fmt.Sprintf("teleporter target %q does not exist", target)})
			}
		}
	}

	for _, conn := range lvl.Connections {
		a, b := ids[conn.BodyA], ids[conn.BodyB]
		if a == nil || b == nil {
			warnings = append(warnings, Warning{WarnMissingEndpoint, conn.ID, fmt.Sprintf("connection %s references missing body (%q, %q)", conn.Type, conn.BodyA, conn.BodyB)})
			continue
		}
		if a.IsStatic && b.IsStatic {
			warnings = append(warnings, Warning{WarnStaticJoint, conn.ID, "connection joins two static bodies"})
		}
	}
	return warnings
}
