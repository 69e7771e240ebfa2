package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleService_CreateListDelete(t *testing.T) {
	db := setupDB(t)
	svc := NewScheduleService(db, nil)
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	created, err := svc.Create(ctx, OverrideRequest{
		DateStart: "2026-12-24",
		DateEnd:   "2026-12-31",
		HourOpen:  "09:00",
		HourClose: "14:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 9, created.HourOpen)
	assert.Equal(t, 14, created.HourClose)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, svc.Delete(ctx, created.ID))

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, "Horario no encontrado.", AsError(err).Message)
}

func TestScheduleService_Validation(t *testing.T) {
	db := setupDB(t)
	svc := NewScheduleService(db, nil)

	tests := []struct {
		name string
		req  OverrideRequest
		want string
	}{
		{
			name: "missing field",
			req:  OverrideRequest{DateStart: "2026-12-24", DateEnd: "2026-12-24", HourOpen: "09:00"},
			want: "Todos los campos son obligatorios.",
		},
		{
			name: "bad date",
			req:  OverrideRequest{DateStart: "24/12/2026", DateEnd: "2026-12-24", HourOpen: "09:00", HourClose: "12:00"},
			want: "Fecha inválida. Usa el formato YYYY-MM-DD.",
		},
		{
			name: "inverted range",
			req:  OverrideRequest{DateStart: "2026-12-24", DateEnd: "2026-12-20", HourOpen: "09:00", HourClose: "12:00"},
			want: "La fecha fin debe ser mayor o igual a la fecha inicio.",
		},
		{
			name: "bad hour",
			req:  OverrideRequest{DateStart: "2026-12-24", DateEnd: "2026-12-24", HourOpen: "9am", HourClose: "12:00"},
			want: "Formato de hora inválido. Usa HH:mm.",
		},
		{
			name: "close before open",
			req:  OverrideRequest{DateStart: "2026-12-24", DateEnd: "2026-12-24", HourOpen: "12:00", HourClose: "12:00"},
			want: "La hora de cierre debe ser mayor a la hora de apertura.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindValidation))
			assert.Equal(t, tt.want, AsError(err).Message)
		})
	}
}

func TestScheduleService_ClosedStore(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())
	svc := NewScheduleService(db, nil)

	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInternal))
	assert.Equal(t, "No pudimos cargar los horarios configurados.", AsError(err).Message)
}
