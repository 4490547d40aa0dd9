package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/tester"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stores returns the sqlite store and, with TEST_POSTGRES=1, a postgres one in docker.
func stores(t *testing.T) map[string]*GormStore {
	t.Helper()

	out := map[string]*GormStore{
		"sqlite": NewGormStore(tester.NewDB(t)),
	}

	if os.Getenv("TEST_POSTGRES") == "1" {
		db, purge, err := tester.SetupPostgres()
		require.NoError(t, err)
		t.Cleanup(purge)
		out["postgres"] = NewGormStore(db)
	}

	return out
}

func newRegulation(userID, company string, revision int, latest bool) *model.Regulation {
	return &model.Regulation{
		ID:                 uuid.New().String(),
		UserID:             userID,
		RegulationName:     company + " 出張旅費規程",
		RegulationType:     "domestic",
		CompanyName:        company,
		DistanceThreshold:  50,
		ImplementationDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		RevisionNumber:     revision,
		Status:             model.RegulationStatusActive,
		IsLatestVersion:    latest,
	}
}

func TestGormStore_RegulationIndexes(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New().String()

			first := newRegulation(userID, "Acme", 1, true)
			require.NoError(t, s.CreateRegulation(ctx, first))

			// same revision twice
			err := s.CreateRegulation(ctx, newRegulation(userID, "Acme", 1, false))
			assert.ErrorIs(t, err, ErrDuplicateKey)

			// a second latest row
			err = s.CreateRegulation(ctx, newRegulation(userID, "Acme", 2, true))
			assert.ErrorIs(t, err, ErrDuplicateKey)

			// another user owns an independent chain
			require.NoError(t, s.CreateRegulation(ctx, newRegulation(uuid.New().String(), "Acme", 1, true)))

			second := newRegulation(userID, "Acme", 2, false)
			require.NoError(t, s.CreateRegulation(ctx, second))

			err = s.Transaction(ctx, func(tx Store) error {
				if err := tx.UnsetLatestRegulation(ctx, userID, "Acme"); err != nil {
					return err
				}
				return tx.SetLatestRegulation(ctx, second.ID)
			})
			require.NoError(t, err)

			chain, err := s.ListCompanyRegulations(ctx, userID, "Acme")
			require.NoError(t, err)
			require.Len(t, chain, 2)
			assert.False(t, chain[0].IsLatestVersion)
			assert.True(t, chain[1].IsLatestVersion)
		})
	}
}

func TestGormStore_PositionsCascade(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			regulation := newRegulation(uuid.New().String(), "Acme", 1, true)
			require.NoError(t, s.CreateRegulation(ctx, regulation))
			require.NoError(t, s.CreateRegulationPositions(ctx, []model.RegulationPosition{
				{ID: uuid.New().String(), RegulationID: regulation.ID, PositionName: "一般社員", SortOrder: 1},
				{ID: uuid.New().String(), RegulationID: regulation.ID, PositionName: "部長", SortOrder: 0},
			}))

			got, err := s.GetRegulation(ctx, regulation.ID)
			require.NoError(t, err)
			require.Len(t, got.Positions, 2)
			assert.Equal(t, "部長", got.Positions[0].PositionName)

			require.NoError(t, s.DeleteRegulation(ctx, regulation.ID))

			positions, err := s.ListRegulationPositions(ctx, regulation.ID)
			require.NoError(t, err)
			assert.Empty(t, positions)

			_, err = s.GetRegulation(ctx, regulation.ID)
			assert.ErrorIs(t, err, ErrRecordNotFound)
			assert.ErrorIs(t, s.DeleteRegulation(ctx, regulation.ID), ErrRecordNotFound)
		})
	}
}

func TestGormStore_TransactionRollback(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New().String()

			err := s.Transaction(ctx, func(tx Store) error {
				if err := tx.CreateRegulation(ctx, newRegulation(userID, "Acme", 1, true)); err != nil {
					return err
				}
				// positions of an unknown regulation violate the foreign key
				return tx.CreateRegulationPositions(ctx, []model.RegulationPosition{
					{ID: uuid.New().String(), RegulationID: "missing", PositionName: "部長"},
				})
			})
			require.Error(t, err)

			chain, err := s.ListCompanyRegulations(ctx, userID, "Acme")
			require.NoError(t, err)
			assert.Empty(t, chain)
		})
	}
}

func TestGormStore_Applications(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New().String()

			older := &model.ExpenseApplication{
				ID: uuid.New().String(), UserID: userID, Title: "交通費", Amount: decimal.NewFromInt(1200),
				Currency: "JPY", Status: model.ApplicationStatusPending,
				CreatedAt: time.Now().Add(-time.Hour),
			}
			newer := &model.ExpenseApplication{
				ID: uuid.New().String(), UserID: userID, Title: "宿泊費", Amount: decimal.RequireFromString("9800.50"),
				Currency: "JPY", Status: model.ApplicationStatusPending,
			}
			require.NoError(t, s.CreateExpenseApplication(ctx, older))
			require.NoError(t, s.CreateExpenseApplication(ctx, newer))

			approvedAt := time.Now()
			require.NoError(t, s.UpdateExpenseApplicationStatus(ctx, newer.ID, model.ApplicationStatusApproved, &approvedAt))

			apps, err := s.ListExpenseApplications(ctx, userID)
			require.NoError(t, err)
			require.Len(t, apps, 2)
			assert.Equal(t, newer.ID, apps[0].ID)
			assert.Equal(t, model.ApplicationStatusApproved, apps[0].Status)
			assert.NotNil(t, apps[0].ApprovedAt)
			assert.True(t, decimal.RequireFromString("9800.50").Equal(apps[0].Amount))
		})
	}
}

func TestGormStore_Notifications(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			userID := uuid.New().String()

			var last *model.Notification
			for i := 0; i < 3; i++ {
				last = &model.Notification{
					ID: uuid.New().String(), UserID: userID, Title: "お知らせ", Message: "本文",
					Type: model.NotificationTypeInfo, CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
				}
				require.NoError(t, s.CreateNotification(ctx, last))
			}

			notifications, err := s.ListNotifications(ctx, userID, 2)
			require.NoError(t, err)
			require.Len(t, notifications, 2)
			assert.Equal(t, last.ID, notifications[0].ID)

			require.NoError(t, s.MarkNotificationRead(ctx, userID, last.ID))
			assert.ErrorIs(t, s.MarkNotificationRead(ctx, uuid.New().String(), last.ID), ErrRecordNotFound)
		})
	}
}
