package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolmon/internal/pkg/model"
)

func TestParseWeighting(t *testing.T) {
	w, err := ParseWeighting("")
	require.NoError(t, err)
	assert.Equal(t, WeightCPU, w)

	w, err = ParseWeighting("gpu")
	require.NoError(t, err)
	assert.Equal(t, WeightGPU, w)

	_, err = ParseWeighting("disk")
	assert.Error(t, err)
}

func TestSlotStdSlots(t *testing.T) {
	r := model.NewRecord(map[string]any{"Cpus": 2, "Memory": 8000, "Gpus": 3})
	assert.Equal(t, 4.0, WeightCPU.StdSlots(r))
	assert.Equal(t, 3.0, WeightGPU.StdSlots(r))

	empty := model.NewRecord(nil)
	assert.Equal(t, 1.0, WeightCPU.StdSlots(empty))
	assert.Equal(t, 1.0, WeightGPU.StdSlots(empty))
}

func TestUnusable(t *testing.T) {
	roomy := model.NewRecord(map[string]any{"Cpus": 4, "Memory": 16000, "Disk": 10 * 1024 * 1024, "Gpus": 1})
	assert.False(t, WeightCPU.Unusable(roomy))
	assert.False(t, WeightGPU.Unusable(roomy))

	noGPU := model.NewRecord(map[string]any{"Cpus": 4, "Memory": 16000, "Disk": 10 * 1024 * 1024, "Gpus": 0})
	assert.False(t, WeightCPU.Unusable(noGPU))
	assert.True(t, WeightGPU.Unusable(noGPU))

	lowMem := model.NewRecord(map[string]any{"Cpus": 4, "Memory": 1999, "Disk": 10 * 1024 * 1024})
	assert.True(t, WeightCPU.Unusable(lowMem))
}

func TestMflops(t *testing.T) {
	assert.Equal(t, int64(8), Mflops(model.NewRecord(map[string]any{"Cpus": 4, "KFlops": 2048})))
	assert.Equal(t, int64(1), Mflops(model.NewRecord(map[string]any{"kflops": 1500})))
	assert.Equal(t, int64(0), Mflops(model.NewRecord(nil)))
}
