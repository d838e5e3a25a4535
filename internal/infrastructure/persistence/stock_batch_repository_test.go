package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStockBatchRepository creates a GormStockBatchRepository with a mocked SQL connection
func newMockStockBatchRepository(t *testing.T) (*GormStockBatchRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockBatchRepository(gormDB), mock, mockDB
}

func batchColumns() []string {
	return []string{
		"id", "created_at", "updated_at", "product_id",
		"quantity_received", "quantity_remaining", "unit_cost",
		"expiry_date", "received_at", "archived", "version",
	}
}

func TestGormStockBatchRepository_FindByID(t *testing.T) {
	t.Run("finds existing batch", func(t *testing.T) {
		repo, mock, mockDB := newMockStockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()
		productID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(batchColumns()).
			AddRow(batchID, now, now, productID,
				decimal.NewFromInt(10), decimal.NewFromInt(4), decimal.NewFromInt(250),
				now.AddDate(0, 0, 30), now, false, 1)

		mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(batchID, 1).
			WillReturnRows(rows)

		batch, err := repo.FindByID(context.Background(), batchID)

		assert.NoError(t, err)
		require.NotNil(t, batch)
		assert.Equal(t, batchID, batch.ID)
		assert.Equal(t, productID, batch.ProductID)
		assert.True(t, batch.QuantityRemaining.Equal(decimal.NewFromInt(4)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing batch", func(t *testing.T) {
		repo, mock, mockDB := newMockStockBatchRepository(t)
		defer mockDB.Close()

		batchID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(batchID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		batch, err := repo.FindByID(context.Background(), batchID)

		assert.Nil(t, batch)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockBatchRepository_FindAvailable(t *testing.T) {
	t.Run("orders batches by expiry then receipt time", func(t *testing.T) {
		repo, mock, mockDB := newMockStockBatchRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		now := time.Now()
		earlyID := uuid.New()
		lateID := uuid.New()

		rows := sqlmock.NewRows(batchColumns()).
			AddRow(earlyID, now, now, productID,
				decimal.NewFromInt(5), decimal.NewFromInt(5), decimal.NewFromInt(100),
				now.AddDate(0, 0, 7), now, false, 1).
			AddRow(lateID, now, now, productID,
				decimal.NewFromInt(5), decimal.NewFromInt(5), decimal.NewFromInt(100),
				now.AddDate(0, 0, 30), now, false, 1)

		mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE product_id = \$1 AND archived = FALSE AND quantity_remaining > 0 ORDER BY expiry_date ASC, received_at ASC, id ASC`).
			WithArgs(productID).
			WillReturnRows(rows)

		batches, err := repo.FindAvailable(context.Background(), productID)

		assert.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, earlyID, batches[0].ID)
		assert.Equal(t, lateID, batches[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice when nothing is in stock", func(t *testing.T) {
		repo, mock, mockDB := newMockStockBatchRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE product_id = \$1`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows(batchColumns()))

		batches, err := repo.FindAvailable(context.Background(), productID)

		assert.NoError(t, err)
		assert.Empty(t, batches)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockBatchRepository_FindByProduct(t *testing.T) {
	t.Run("counts and pages results", func(t *testing.T) {
		repo, mock, mockDB := newMockStockBatchRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_batches" WHERE product_id = \$1`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		rows := sqlmock.NewRows(batchColumns()).
			AddRow(uuid.New(), now, now, productID,
				decimal.NewFromInt(5), decimal.Zero, decimal.NewFromInt(100),
				now.AddDate(0, 0, 7), now, true, 1)

		mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE product_id = \$1`).
			WithArgs(productID).
			WillReturnRows(rows)

		filter := shared.DefaultFilter()
		batches, total, err := repo.FindByProduct(context.Background(), productID, filter)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, batches, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applies available_only filter", func(t *testing.T) {
		repo, mock, mockDB := newMockStockBatchRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_batches" WHERE product_id = \$1 AND \(archived = FALSE AND quantity_remaining > 0\)`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE product_id = \$1 AND \(archived = FALSE AND quantity_remaining > 0\)`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows(batchColumns()))

		filter := shared.DefaultFilter()
		filter.Filters["available_only"] = true

		batches, total, err := repo.FindByProduct(context.Background(), productID, filter)

		assert.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, batches)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockBatchRepository_Save(t *testing.T) {
	t.Run("updates existing batch guarded on its version", func(t *testing.T) {
		repo, mock, mockDB := newMockStockBatchRepository(t)
		defer mockDB.Close()

		batch, err := inventory.NewStockBatch(
			uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(250),
			time.Now().AddDate(0, 0, 30), 0,
		)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "stock_batches" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Save(context.Background(), batch)

		assert.NoError(t, err)
		assert.Equal(t, 2, batch.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("detects concurrent modification when the version moved", func(t *testing.T) {
		repo, mock, mockDB := newMockStockBatchRepository(t)
		defer mockDB.Close()

		batch, err := inventory.NewStockBatch(
			uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(250),
			time.Now().AddDate(0, 0, 30), 0,
		)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "stock_batches" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_batches" WHERE id = \$1`).
			WithArgs(batch.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err = repo.Save(context.Background(), batch)

		assert.Equal(t, shared.ErrConcurrentModification, err)
		assert.Equal(t, 1, batch.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates batch when no row exists", func(t *testing.T) {
		repo, mock, mockDB := newMockStockBatchRepository(t)
		defer mockDB.Close()

		batch, err := inventory.NewStockBatch(
			uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(250),
			time.Now().AddDate(0, 0, 30), 0,
		)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "stock_batches" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_batches" WHERE id = \$1`).
			WithArgs(batch.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO "stock_batches"`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err = repo.Save(context.Background(), batch)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
