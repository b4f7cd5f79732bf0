package app_test

import (
	"context"
	"testing"

	"fareclaim/internal/adapter/memory"
	"fareclaim/internal/app"
	"fareclaim/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestCommuterPassService_GetIsIdempotent(t *testing.T) {
	svc := app.NewCommuterPassService(memory.New())
	ctx := context.Background()

	first, err := svc.Get(ctx, alice)
	require.NoError(t, err)
	second, err := svc.Get(ctx, alice)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, first.StartStation)
	assert.Empty(t, first.EndStation)
	assert.True(t, first.IsActive)
	assert.Equal(t, "2000-01-01", first.ValidFrom.String())
	assert.Equal(t, "2000-01-01", first.ValidTo.String())

	other, err := svc.Get(ctx, 2)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCommuterPassService_PatchOnlyTouchesSuppliedFields(t *testing.T) {
	svc := app.NewCommuterPassService(memory.New())
	ctx := context.Background()

	full, err := svc.Replace(ctx, alice, app.CommuterPassUpdate{
		StartStation: ptr("Tokyo"),
		EndStation:   ptr("Shibuya"),
		ValidFrom:    ptr(day(t, "2025-04-01")),
		ValidTo:      ptr(day(t, "2025-09-30")),
		IsActive:     ptr(true),
	})
	require.NoError(t, err)

	patched, err := svc.Patch(ctx, alice, app.CommuterPassUpdate{IsActive: ptr(false)})
	require.NoError(t, err)

	assert.False(t, patched.IsActive)
	assert.Equal(t, full.ID, patched.ID)
	assert.Equal(t, full.StartStation, patched.StartStation)
	assert.Equal(t, full.EndStation, patched.EndStation)
	assert.Equal(t, full.ValidFrom, patched.ValidFrom)
	assert.Equal(t, full.ValidTo, patched.ValidTo)
	assert.Equal(t, full.CreatedAt, patched.CreatedAt)
}

func TestCommuterPassService_ReplaceRequiresEveryField(t *testing.T) {
	svc := app.NewCommuterPassService(memory.New())

	_, err := svc.Replace(context.Background(), alice, app.CommuterPassUpdate{StartStation: ptr("Tokyo")})
	fields := domain.FieldErrors(err)
	require.NotNil(t, fields)
	for _, key := range []string{"end_station", "valid_from", "valid_to", "is_active"} {
		assert.Contains(t, fields, key)
	}
	assert.NotContains(t, fields, "start_station")
}

func TestCommuterPassService_Validation(t *testing.T) {
	svc := app.NewCommuterPassService(memory.New())
	ctx := context.Background()

	_, err := svc.Patch(ctx, alice, app.CommuterPassUpdate{
		StartStation: ptr("   "),
		ValidFrom:    ptr(day(t, "2025-05-01")),
		ValidTo:      ptr(day(t, "2025-04-30")),
	})
	fields := domain.FieldErrors(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "start_station")
	assert.Contains(t, fields, "valid_to")

	pass, err := svc.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", pass.ValidFrom.String(), "failed patch must not be applied")
}
