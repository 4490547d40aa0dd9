package service

import (
	"context"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SeedDemoData fills the account of the demo user with sample applications and
// notifications. Accounts that already have applications are left untouched.
func SeedDemoData(ctx context.Context, s store.Store, userID string, now time.Time) error {
	existing, err := s.ListExpenseApplications(ctx, userID)
	if err != nil {
		return backendError(ctx, err)
	}
	if len(existing) > 0 {
		return nil
	}

	year, month, _ := now.Date()
	day := func(monthOffset, d int) time.Time {
		return time.Date(year, month+time.Month(monthOffset), d, 0, 0, 0, 0, now.Location())
	}
	at := func(t time.Time) *time.Time { return &t }

	expenses := []*model.ExpenseApplication{
		{
			Title:       "交通費・宿泊費精算",
			Description: "東京出張に伴う交通費と宿泊費の精算",
			Amount:      decimal.NewFromInt(25800),
			Status:      model.ApplicationStatusApproved,
			Category:    "TRANSPORTATION",
			SubmittedAt: day(0, 15),
			ApprovedAt:  at(day(0, 16)),
			CreatedAt:   day(0, 15),
		},
		{
			Title:       "会議費精算",
			Description: "クライアント会議での飲食費",
			Amount:      decimal.NewFromInt(8500),
			Status:      model.ApplicationStatusPending,
			Category:    "ENTERTAINMENT",
			SubmittedAt: day(0, 20),
			CreatedAt:   day(0, 20),
		},
	}

	trips := []*model.BusinessTripApplication{
		{
			Title:         "東京出張申請",
			Description:   "新規クライアント訪問および契約締結",
			Destination:   "東京都港区",
			StartDate:     day(0, 25),
			EndDate:       day(0, 27),
			Purpose:       "クライアント訪問および新規開拓営業",
			EstimatedCost: decimal.NewFromInt(52500),
			Status:        model.ApplicationStatusApproved,
			SubmittedAt:   day(0, 18),
			ApprovedAt:    at(day(0, 19)),
			CreatedAt:     day(0, 18),
		},
		{
			Title:         "大阪出張申請",
			Description:   "関西支社との会議および業務調整",
			Destination:   "大阪府大阪市",
			StartDate:     day(1, 5),
			EndDate:       day(1, 6),
			Purpose:       "関西支社との定期会議および業務調整",
			EstimatedCost: decimal.NewFromInt(35000),
			Status:        model.ApplicationStatusPending,
			SubmittedAt:   day(0, 22),
			CreatedAt:     day(0, 22),
		},
	}

	notifications := []*model.Notification{
		{
			Title:     "出張申請が承認されました",
			Message:   "東京出張申請が承認されました。出張の準備を進めてください。",
			Type:      model.NotificationTypeSuccess,
			CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			Title:     "経費申請の提出期限が近づいています",
			Message:   "今月の経費申請の提出期限は明日です。お忘れなく提出してください。",
			Type:      model.NotificationTypeWarning,
			IsRead:    true,
			CreatedAt: now.Add(-24 * time.Hour),
		},
		{
			Title:     "システムメンテナンスのお知らせ",
			Message:   "明日の深夜2:00-4:00にシステムメンテナンスを実施します。",
			Type:      model.NotificationTypeInfo,
			IsRead:    true,
			CreatedAt: now.Add(-72 * time.Hour),
		},
	}

	err = s.Transaction(ctx, func(tx store.Store) error {
		for _, app := range expenses {
			app.ID = uuid.New().String()
			app.UserID = userID
			app.Currency = defaultCurrency
			if err := tx.CreateExpenseApplication(ctx, app); err != nil {
				return err
			}
		}
		for _, app := range trips {
			app.ID = uuid.New().String()
			app.UserID = userID
			if err := tx.CreateBusinessTripApplication(ctx, app); err != nil {
				return err
			}
		}
		for _, n := range notifications {
			n.ID = uuid.New().String()
			n.UserID = userID
			if err := tx.CreateNotification(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return backendError(ctx, err)
	}

	logrus.Infof("seeded demo data for user %s", userID)
	return nil
}
