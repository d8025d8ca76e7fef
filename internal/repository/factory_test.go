package repository

import (
	"context"
	"testing"
	"time"

	"factoryfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestFactoryRepository_Lifecycle(t *testing.T) {
	db := setupDB(t)
	repo := NewFactoryRepository(db)
	ctx := context.Background()

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	f := &models.Factory{ID: factoryID(1), Name: "Plant", Location: "Ulsan", BaseTemp: 180, Temp: 180, Status: models.FactoryStatusNormal}
	require.NoError(t, repo.Create(ctx, f, &models.FactoryPost{
		FactoryID: f.ID, FactoryName: f.Name, Message: "created", Priority: models.PriorityNormal,
	}))

	err = repo.Create(ctx, &models.Factory{ID: factoryID(1), Name: "Dup", Location: "X"}, nil)
	assert.True(t, models.IsCode(err, models.CodeConflict))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	f.Temp = 231.4
	f.Status = models.FactoryStatusOverheat
	f.LastUpdate = time.Now()
	require.NoError(t, repo.SaveReading(ctx, f, &models.FactoryPost{
		FactoryID: f.ID, FactoryName: f.Name, Message: "hot",
		StatusData: datatypes.JSON(`{"temperature":231.4}`), Priority: models.PriorityHigh,
	}))

	stored, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 231.4, stored.Temp)
	assert.Equal(t, models.FactoryStatusOverheat, stored.Status)

	feed, err := repo.Feed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "hot", feed[0].Message)
	assert.JSONEq(t, `{"temperature":231.4}`, string(feed[0].StatusData))

	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, feed[0].ID, latest.ID)

	err = repo.SaveReading(ctx, &models.Factory{ID: "factory_404"}, &models.FactoryPost{FactoryID: "factory_404", Message: "x"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	feed, err = repo.Feed(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, feed, 2, "a failed reading must not append an event")

	_, err = repo.GetByID(ctx, "factory_404")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
