package database

import (
	"context"
	"testing"

	"cancha/internal/domain"
	"cancha/internal/models"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleOverrides(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	wide := &models.ScheduleOverride{
		DateStart: civil.Date{Year: 2026, Month: 12, Day: 1},
		DateEnd:   civil.Date{Year: 2026, Month: 12, Day: 31},
		HourOpen:  9,
		HourClose: 18,
	}
	narrow := &models.ScheduleOverride{
		DateStart: civil.Date{Year: 2026, Month: 12, Day: 24},
		DateEnd:   civil.Date{Year: 2026, Month: 12, Day: 25},
		HourOpen:  10,
		HourClose: 14,
	}
	require.NoError(t, db.CreateOverride(ctx, wide))
	require.NoError(t, db.CreateOverride(ctx, narrow))
	assert.NotEmpty(t, wide.ID)

	t.Run("latest start wins", func(t *testing.T) {
		o, err := db.FindOverride(ctx, civil.Date{Year: 2026, Month: 12, Day: 24})
		require.NoError(t, err)
		require.NotNil(t, o)
		assert.Equal(t, narrow.ID, o.ID)
		assert.Equal(t, 10, o.HourOpen)
		assert.Equal(t, 14, o.HourClose)
	})

	t.Run("range boundaries are inclusive", func(t *testing.T) {
		o, err := db.FindOverride(ctx, civil.Date{Year: 2026, Month: 12, Day: 31})
		require.NoError(t, err)
		require.NotNil(t, o)
		assert.Equal(t, wide.ID, o.ID)
	})

	t.Run("no override", func(t *testing.T) {
		o, err := db.FindOverride(ctx, civil.Date{Year: 2027, Month: 1, Day: 1})
		require.NoError(t, err)
		assert.Nil(t, o)
	})

	t.Run("list and delete", func(t *testing.T) {
		list, err := db.ListOverrides(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, narrow.ID, list[0].ID)

		require.NoError(t, db.DeleteOverride(ctx, narrow.ID))
		assert.ErrorIs(t, db.DeleteOverride(ctx, narrow.ID), domain.ErrNotFound)

		o, err := db.FindOverride(ctx, civil.Date{Year: 2026, Month: 12, Day: 24})
		require.NoError(t, err)
		require.NotNil(t, o)
		assert.Equal(t, wide.ID, o.ID)
	})
}

func TestCreateOverride_RejectsInvertedRange(t *testing.T) {
	db := setupTestDB(t)
	err := db.CreateOverride(context.Background(), &models.ScheduleOverride{
		DateStart: civil.Date{Year: 2026, Month: 12, Day: 10},
		DateEnd:   civil.Date{Year: 2026, Month: 12, Day: 1},
		HourOpen:  8,
		HourClose: 20,
	})
	assert.Error(t, err)
}
