package classify

import (
	"regexp"
	"strings"

	"poolmon/internal/pkg/model"
)

// UnknownClaim names the group or owner of a claimed slot nobody advertises.
const UnknownClaim = "Unknown"

var slotGroup = regexp.MustCompile(`^group_(\S+)\.(\S+)@\S+$`)

var sanitizer = strings.NewReplacer(".", "_", "@", "-", " ", "_")

// Sanitize makes a free-text identifier safe to embed as one segment of a
// dotted metric path.
func Sanitize(s string) string {
	return sanitizer.Replace(s)
}

// SlotClass is the classification of one slot record. Group and Owner are
// only set for claimed slots and are already sanitized.
type SlotClass struct {
	Type          string
	State         string
	Partitionable bool
	Claimed       bool
	Group         string
	Owner         string
}

// Slot classifies a slot record by slot type and state.
func Slot(r model.Record) SlotClass {
	c := SlotClass{
		Type:  r.StringOr(model.AttrSlotType, model.SlotStatic),
		State: r.StringOr(model.AttrState, model.SlotStateUnknown),
	}
	if r.BoolOr(model.AttrIsGlidein, false) {
		c.Type += model.GlideinSuffix
	}
	c.Partitionable = c.Type == model.SlotPartitionable || c.Type == model.SlotPartitionableGlidein
	if c.Partitionable || c.State != model.SlotStateClaimed {
		return c
	}
	c.Claimed = true
	group, owner := ClaimingGroupOwner(r)
	c.Group, c.Owner = Sanitize(group), Sanitize(owner)
	return c
}

// ClaimingGroupOwner returns the accounting group and owner occupying a
// claimed slot, "Unknown" where neither the accounting group nor the remote
// attributes say.
func ClaimingGroupOwner(r model.Record) (string, string) {
	group, owner := UnknownClaim, UnknownClaim
	if ag, err := r.String(model.AttrAccountingGroup); err == nil {
		if m := slotGroup.FindStringSubmatch(ag); m != nil {
			group, owner = m[1], m[2]
		}
	}
	if group == UnknownClaim {
		if rg, err := r.String(model.AttrRemoteGroup); err == nil {
			group = rg
			if group == "<none>" {
				group = "None"
			}
		}
	}
	if owner == UnknownClaim {
		if ro, err := r.String(model.AttrRemoteOwner); err == nil {
			owner, _, _ = strings.Cut(ro, "@")
		}
	}
	return group, owner
}

// Prefix joins metric path segments with dots.
func Prefix(parts ...string) string {
	return strings.Join(parts, ".")
}
