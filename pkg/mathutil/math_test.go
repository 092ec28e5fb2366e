package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalcMeanStd(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float32
		wantMean float32
		wantStd  float32
	}{
		{"empty returns safe defaults", nil, 0, 1},
		{"single value has zero spread", []float32{4}, 4, 1},
		{"uniform values", []float32{2, 2, 2}, 2, 1},
		{"symmetric values", []float32{1, 3}, 2, 1},
		{"wider spread", []float32{0, 10}, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := CalcMeanStd(tt.scores)
			assert.InDelta(t, tt.wantMean, mean, 1e-6)
			assert.InDelta(t, tt.wantStd, std, 1e-6)
		})
	}
}

func TestZScore(t *testing.T) {
	assert.InDelta(t, 1.0, ZScore(6, 4, 2), 1e-6)
	assert.InDelta(t, -0.5, ZScore(3, 4, 2), 1e-6)
	assert.Equal(t, float32(0), ZScore(3, 4, 0))
}

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-6)
	assert.Greater(t, Sigmoid(3), float32(0.95))
	assert.Less(t, Sigmoid(-3), float32(0.05))

	// Monotonic
	assert.Greater(t, Sigmoid(1), Sigmoid(0))
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		defaultVal int
		maxVal     int
		want       int
	}{
		{"zero uses default", 0, 20, 100, 20},
		{"negative uses default", -5, 20, 100, 20},
		{"within range passes through", 50, 20, 100, 50},
		{"above max clamps", 500, 20, 100, 100},
		{"exactly max", 100, 20, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLimit(tt.limit, tt.defaultVal, tt.maxVal))
		})
	}
}
