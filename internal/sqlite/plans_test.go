package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func TestSave_AssignsIDs(t *testing.T) {
	b, _ := newTestBackend(t)
	p := samplePlan(t, "ids")

	id, err := b.Save(context.Background(), p)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, p.ID)
	for _, r := range p.Rules {
		assert.Positive(t, r.ID)
		assert.Equal(t, id, r.PlanID)
	}
	for _, m := range p.Mappings {
		assert.Positive(t, m.ID)
		assert.Equal(t, id, m.PlanID)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	p := samplePlan(t, "round trip")

	id, err := b.Save(ctx, p)
	require.NoError(t, err)

	got, err := b.Load(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Description, got.Description)
	assert.Equal(t, p.Tags, got.Tags)
	assert.True(t, got.IsActive)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.WithinDuration(t, p.UpdatedAt, got.UpdatedAt, time.Millisecond)

	require.Len(t, got.Rules, 1)
	assert.Equal(t, p.Rules[0], got.Rules[0])

	require.Len(t, got.Mappings, 1)
	gm, wm := got.Mappings[0], p.Mappings[0]
	assert.Equal(t, wm.SourceMatch, gm.SourceMatch)
	assert.Equal(t, "Rates", gm.SourceMatch.Sheet)
	assert.Equal(t, wm.SourceValue, gm.SourceValue)
	assert.Equal(t, wm.TargetMatch, gm.TargetMatch)
	assert.Equal(t, wm.TargetInsert, gm.TargetInsert)
	assert.Equal(t, types.RowRange{Start: 2, End: 40}, gm.SourceRowRange)
	assert.Equal(t, types.RowRange{Start: 1}, gm.TargetRowRange)
	assert.Equal(t, "EUR", gm.SourceMatchValue.String())
	assert.Equal(t, types.OpEquals, gm.SourceMatchOperator)
	assert.Equal(t, wm, gm)
}

func TestSave_Update(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	p := samplePlan(t, "update")
	id, err := b.Save(ctx, p)
	require.NoError(t, err)
	created := p.CreatedAt

	c, err := types.ParseCondition("region is-not-empty")
	require.NoError(t, err)
	r, err := types.NewRule("regional", "", "", c)
	require.NoError(t, err)
	require.NoError(t, p.AddRule(r))
	require.NoError(t, p.RemoveMapping("rate"))
	require.NoError(t, p.MoveRule(1, 0))

	again, err := b.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	got, err := b.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Rules, 2)
	assert.Equal(t, "regional", got.Rules[0].Name)
	assert.Equal(t, "active", got.Rules[1].Name)
	assert.Equal(t, 0, got.Rules[0].OrderIndex)
	assert.Equal(t, 1, got.Rules[1].OrderIndex)
	assert.Empty(t, got.Mappings)
	assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)
}

func TestSave_Errors(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	_, err := b.Save(ctx, nil)
	assert.ErrorIs(t, err, types.ErrInvalidData)

	_, err = b.Save(ctx, &types.FilterPlan{})
	assert.ErrorIs(t, err, types.ErrInvalidName)

	missing := samplePlan(t, "ghost")
	missing.ID = 999
	_, err = b.Save(ctx, missing)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLoad_Errors(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		id      int64
		wantErr error
	}{
		{"zero id", 0, types.ErrInvalidID},
		{"negative id", -3, types.ErrInvalidID},
		{"missing", 42, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Load(ctx, tt.id)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSoftDelete(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	id, err := b.Save(ctx, samplePlan(t, "soft"))
	require.NoError(t, err)

	require.NoError(t, b.SoftDelete(ctx, id))

	_, err = b.Load(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)

	active, err := b.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := b.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
	assert.Len(t, all[0].Rules, 1, "soft delete keeps rules")

	assert.ErrorIs(t, b.SoftDelete(ctx, id), types.ErrNotFound)
	assert.ErrorIs(t, b.SoftDelete(ctx, 0), types.ErrInvalidID)
}

func TestDelete(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()
	id, err := b.Save(ctx, samplePlan(t, "hard"))
	require.NoError(t, err)

	require.NoError(t, b.Delete(ctx, id))

	all, err := b.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, all)

	var rules, mappings int
	require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM filter_rules").Scan(&rules))
	require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM data_mappings").Scan(&mappings))
	assert.Zero(t, rules)
	assert.Zero(t, mappings)

	assert.ErrorIs(t, b.Delete(ctx, id), types.ErrNotFound)
}

func TestList_Order(t *testing.T) {
	b, _ := newTestBackend(t)
	ctx := context.Background()

	first := samplePlan(t, "first")
	_, err := b.Save(ctx, first)
	require.NoError(t, err)
	second := samplePlan(t, "second")
	_, err = b.Save(ctx, second)
	require.NoError(t, err)

	plans, err := b.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "second", plans[0].Name)

	// Saving again moves the plan to the front.
	first.Description = "edited"
	_, err = b.Save(ctx, first)
	require.NoError(t, err)

	plans, err = b.List(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "first", plans[0].Name)
	assert.Equal(t, "edited", plans[0].Description)
}
