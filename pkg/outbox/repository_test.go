package outbox

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func seedEvent(t *testing.T, db *gorm.DB, createdAt time.Time) models.OutboxEvent {
	t.Helper()
	row := models.OutboxEvent{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     createdAt,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestFetchUnpublishedForPublishOrdersAndFilters(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	base := time.Now().UTC().Add(-time.Hour)

	second := seedEvent(t, db, base.Add(time.Minute))
	first := seedEvent(t, db, base)
	published := seedEvent(t, db, base.Add(2*time.Minute))
	exhausted := seedEvent(t, db, base.Add(3*time.Minute))

	require.NoError(t, repo.MarkPublishedTx(db, published.ID))
	require.NoError(t, repo.MarkTerminalTx(db, exhausted.ID, errors.New("bad payload"), 5))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, first.ID, rows[0].ID)
	require.Equal(t, second.ID, rows[1].ID)

	rows, err = repo.FetchUnpublishedForPublish(db, 1, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestMarkFailedIncrementsAttempts(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	row := seedEvent(t, db, time.Now().UTC())

	long := errors.New(strings.Repeat("x", maxErrorLen+50))
	require.NoError(t, repo.MarkFailedTx(db, row.ID, long))
	require.NoError(t, repo.MarkFailedTx(db, row.ID, errors.New("timeout")))

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", row.ID).Error)
	require.Equal(t, 2, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	require.Equal(t, "timeout", *stored.LastError)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 2)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestTruncateError(t *testing.T) {
	require.Nil(t, truncateError(nil))
	msg := truncateError(errors.New(strings.Repeat("y", maxErrorLen*2)))
	require.Len(t, *msg, maxErrorLen)
}

func TestInsertRequiresTx(t *testing.T) {
	repo := NewRepository(nil)
	require.Error(t, repo.Insert(nil, models.OutboxEvent{}))
	_, err := repo.FetchUnpublishedForPublish(nil, 1, 1)
	require.Error(t, err)
}
