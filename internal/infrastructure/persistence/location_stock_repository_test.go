package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stockalloc/engine/internal/domain/allocation"
	"github.com/stockalloc/engine/internal/domain/shared"
)

func TestGormLocationStockRepository_FindByItemAndLocation(t *testing.T) {
	t.Run("loads ledger with claims", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLocationStockRepository(db)

		itemID := uuid.New()
		ledgerID := uuid.New()
		claimID := uuid.New()

		ledgerRows := sqlmock.NewRows([]string{"id", "item_id", "location", "total", "allocated", "version"}).
			AddRow(ledgerID, itemID, "sakar", int64(100), int64(40), 3)
		mock.ExpectQuery(`SELECT \* FROM "location_stocks" WHERE item_id = \$1 AND location = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(itemID, "sakar", 1).
			WillReturnRows(ledgerRows)

		claimRows := sqlmock.NewRows([]string{"id", "location_stock_id", "project_code", "quantity", "remarks"}).
			AddRow(claimID, ledgerID, "P1", int64(40), "tower foundation work")
		mock.ExpectQuery(`SELECT \* FROM "claims" WHERE "claims"\."location_stock_id" = \$1`).
			WithArgs(ledgerID).
			WillReturnRows(claimRows)

		ls, err := repo.FindByItemAndLocation(context.Background(), itemID, "sakar")

		require.NoError(t, err)
		assert.Equal(t, ledgerID, ls.ID)
		assert.Equal(t, int64(60), ls.Available())
		require.Len(t, ls.Claims, 1)
		assert.Equal(t, "P1", ls.Claims[0].ProjectCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing ledger", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLocationStockRepository(db)

		itemID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "location_stocks" WHERE item_id = \$1 AND location = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(itemID, "nowhere", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		ls, err := repo.FindByItemAndLocation(context.Background(), itemID, "nowhere")

		assert.Nil(t, ls)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLocationStockRepository_FindByItem(t *testing.T) {
	t.Run("orders ledgers by location", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLocationStockRepository(db)

		itemID := uuid.New()
		ledgerRows := sqlmock.NewRows([]string{"id", "item_id", "location", "total", "allocated", "version"}).
			AddRow(uuid.New(), itemID, "bhiwandi", int64(50), int64(0), 1).
			AddRow(uuid.New(), itemID, "sakar", int64(100), int64(0), 1)
		mock.ExpectQuery(`SELECT \* FROM "location_stocks" WHERE item_id = \$1 ORDER BY location ASC`).
			WithArgs(itemID).
			WillReturnRows(ledgerRows)

		mock.ExpectQuery(`SELECT \* FROM "claims" WHERE "claims"\."location_stock_id" IN \(\$1,\$2\)`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "location_stock_id", "project_code", "quantity", "remarks"}))

		ledgers, err := repo.FindByItem(context.Background(), itemID)

		require.NoError(t, err)
		require.Len(t, ledgers, 2)
		assert.Equal(t, "bhiwandi", ledgers[0].Location)
		assert.Equal(t, "sakar", ledgers[1].Location)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLocationStockRepository_FindByClaimID(t *testing.T) {
	t.Run("resolves owning ledger through claim", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLocationStockRepository(db)

		itemID := uuid.New()
		ledgerID := uuid.New()
		claimID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "claims" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(claimID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "location_stock_id", "project_code", "quantity", "remarks"}).
				AddRow(claimID, ledgerID, "P1", int64(25), "substation cabling"))

		mock.ExpectQuery(`SELECT \* FROM "location_stocks" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(ledgerID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "location", "total", "allocated", "version"}).
				AddRow(ledgerID, itemID, "sakar", int64(100), int64(25), 2))

		mock.ExpectQuery(`SELECT \* FROM "claims" WHERE "claims"\."location_stock_id" = \$1`).
			WithArgs(ledgerID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "location_stock_id", "project_code", "quantity", "remarks"}).
				AddRow(claimID, ledgerID, "P1", int64(25), "substation cabling"))

		ls, err := repo.FindByClaimID(context.Background(), claimID)

		require.NoError(t, err)
		assert.Equal(t, ledgerID, ls.ID)
		require.NotNil(t, ls.ClaimByID(claimID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown claim", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLocationStockRepository(db)

		claimID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "claims" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(claimID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		ls, err := repo.FindByClaimID(context.Background(), claimID)

		assert.Nil(t, ls)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLocationStockRepository_SaveWithLock(t *testing.T) {
	newLedger := func(t *testing.T) *allocation.LocationStock {
		t.Helper()
		ls, err := allocation.NewLocationStock(uuid.New(), "sakar")
		require.NoError(t, err)
		ls.UpdatedAt = time.Now()
		return ls
	}

	t.Run("persists ledger when version matches", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLocationStockRepository(db)

		ls := newLedger(t)
		ls.Version = 2

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "location_stocks" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), ls.ID, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		// No claims on the ledger, so the sync clears the claims table rows
		mock.ExpectExec(`DELETE FROM "claims" WHERE location_stock_id = \$1`).
			WithArgs(ls.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.SaveWithLock(context.Background(), ls)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects stale version", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLocationStockRepository(db)

		ls := newLedger(t)
		ls.Version = 2

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "location_stocks" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), ls.ID, 1).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), ls)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_FAILED", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
