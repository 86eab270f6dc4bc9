package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"poolmon/internal/pkg/model"
)

func TestSanitize(t *testing.T) {
	assert.Equal(t, "alice-fnal_gov", Sanitize("alice@fnal.gov"))
	assert.Equal(t, "my_group_x", Sanitize("my group.x"))
	assert.Equal(t, "plain", Sanitize("plain"))
}

func TestSlotTypes(t *testing.T) {
	c := Slot(model.NewRecord(map[string]any{}))
	assert.Equal(t, SlotClass{Type: "Static", State: "Unknown"}, c)

	c = Slot(model.NewRecord(map[string]any{"SlotType": "Partitionable", "State": "Unclaimed", "IS_GLIDEIN": true}))
	assert.Equal(t, "PartitionableGlidein", c.Type)
	assert.True(t, c.Partitionable)
	assert.False(t, c.Claimed)

	// partitionable slots are never broken down by claimant
	c = Slot(model.NewRecord(map[string]any{"SlotType": "Partitionable", "State": "Claimed", "RemoteOwner": "x@y"}))
	assert.True(t, c.Partitionable)
	assert.False(t, c.Claimed)
	assert.Empty(t, c.Owner)

	c = Slot(model.NewRecord(map[string]any{"SlotType": "Dynamic", "IS_GLIDEIN": "yes"}))
	assert.Equal(t, "Dynamic", c.Type, "non-bool glidein flag is ignored")
}

func TestSlotClaimedGroupOwner(t *testing.T) {
	cases := []struct {
		name        string
		attrs       map[string]any
		group, user string
	}{
		{
			name:  "from accounting group",
			attrs: map[string]any{"AccountingGroup": "group_atlas.prod.alice@fnal.gov"},
			group: "atlas_prod", user: "alice",
		},
		{
			name:  "remote attributes",
			attrs: map[string]any{"AccountingGroup": "atlas", "RemoteGroup": "cms", "RemoteOwner": "bob@cern.ch"},
			group: "cms", user: "bob",
		},
		{
			name:  "none group",
			attrs: map[string]any{"RemoteGroup": "<none>", "RemoteOwner": "carol"},
			group: "None", user: "carol",
		},
		{
			name:  "nothing advertised",
			attrs: map[string]any{},
			group: "Unknown", user: "Unknown",
		},
		{
			name:  "expression accounting group",
			attrs: map[string]any{"AccountingGroup": "/Expr(strcat(\"group_\", Owner))/", "RemoteOwner": "dan"},
			group: "Unknown", user: "dan",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			attrs := map[string]any{"State": "Claimed"}
			for k, v := range c.attrs {
				attrs[k] = v
			}
			got := Slot(model.NewRecord(attrs))
			assert.True(t, got.Claimed)
			assert.Equal(t, c.group, got.Group)
			assert.Equal(t, c.user, got.Owner)
		})
	}
}
