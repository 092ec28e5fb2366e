package actions

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActionFields(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   Fields
	}{
		{
			name: "modern columns only",
			action: Action{
				Title:       "Ship login",
				Description: "OAuth flow",
				Vision:      "Users sign in",
			},
			want: Fields{Title: "Ship login", Description: "OAuth flow", Vision: "Users sign in"},
		},
		{
			name: "legacy blob only",
			action: Action{
				Data: map[string]any{
					"title":       "Legacy title",
					"description": "Legacy desc",
					"vision":      "Legacy vision",
				},
			},
			want: Fields{Title: "Legacy title", Description: "Legacy desc", Vision: "Legacy vision"},
		},
		{
			name: "modern wins over legacy",
			action: Action{
				Title: "Modern title",
				Data: map[string]any{
					"title":       "Legacy title",
					"description": "Legacy desc",
				},
			},
			want: Fields{Title: "Modern title", Description: "Legacy desc"},
		},
		{
			name: "non-string legacy values ignored",
			action: Action{
				Data: map[string]any{
					"title":       42,
					"description": nil,
				},
			},
			want: Fields{},
		},
		{
			name:   "empty everywhere",
			action: Action{},
			want:   Fields{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.Fields())
		})
	}
}

func TestActionToResponse(t *testing.T) {
	id := uuid.New()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	action := &Action{
		ID:      id,
		Done:    true,
		Version: 3,
		Data: map[string]any{
			"title": "From the blob",
		},
		CreatedAt: created,
		UpdatedAt: created,
	}

	resp := action.ToResponse()

	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "From the blob", resp.Data.Title)
	assert.True(t, resp.Done)
	assert.Equal(t, 3, resp.Version)
	assert.Equal(t, "2025-03-01T12:00:00Z", resp.CreatedAt)
}

func TestEdgeToResponse(t *testing.T) {
	src := uuid.New()
	dst := uuid.New()
	edge := &Edge{Src: src, Dst: dst, Kind: KindDependency}

	resp := edge.ToResponse()

	assert.Equal(t, src, resp.Src)
	assert.Equal(t, dst, resp.Dst)
	assert.Equal(t, "dependency", resp.Kind)
}
