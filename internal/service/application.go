package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/queue"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultCurrency = "JPY"

type ExpenseInput struct {
	Title           string          `json:"title" validate:"required"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Category        string          `json:"category"`
	ReceiptURL      string          `json:"receipt_url" validate:"omitempty,url"`
	PeriodStartDate string          `json:"period_start_date" validate:"omitempty,datetime=2006-01-02"`
	PeriodEndDate   string          `json:"period_end_date" validate:"omitempty,datetime=2006-01-02"`
	Reason          string          `json:"reason"`
}

type BusinessTripInput struct {
	Title         string          `json:"title" validate:"required"`
	Description   string          `json:"description"`
	Destination   string          `json:"destination" validate:"required"`
	StartDate     string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	Purpose       string          `json:"purpose" validate:"required"`
	Overseas      bool            `json:"overseas"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
}

// NewApplicationService creates a new ApplicationService. queue may be nil,
// notifications are then only persisted.
func NewApplicationService(store store.Store, queue queue.NotificationQueue) *ApplicationService {
	return &ApplicationService{
		store: store,
		queue: queue,
		now:   time.Now,
	}
}

// ApplicationService manages expense and business trip applications.
type ApplicationService struct {
	store store.Store
	queue queue.NotificationQueue
	now   func() time.Time
}

func (s *ApplicationService) CreateExpense(ctx context.Context, userID string, input ExpenseInput) (*model.ExpenseApplication, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, validationError("amount", "金額は0より大きい値を入力してください")
	}

	now := s.now()
	app := &model.ExpenseApplication{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Status:      model.ApplicationStatusPending,
		Category:    input.Category,
		ReceiptURL:  input.ReceiptURL,
		Reason:      input.Reason,
		SubmittedAt: now,
	}
	if app.Currency == "" {
		app.Currency = defaultCurrency
	}
	app.PeriodStartDate = parseOptionalDate(input.PeriodStartDate)
	app.PeriodEndDate = parseOptionalDate(input.PeriodEndDate)

	notification := newNotification(userID, "経費申請が作成されました",
		fmt.Sprintf("%sの申請が正常に作成されました。", app.Title), model.NotificationTypeSuccess)

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateExpenseApplication(ctx, app); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, notification)
	})
	if err != nil {
		logrus.Errorf("failed to create expense application: %v", err)
		return nil, backendError(ctx, err)
	}

	publishNotification(ctx, s.queue, notification)

	return app, nil
}

func (s *ApplicationService) CreateBusinessTrip(ctx context.Context, userID string, input BusinessTripInput) (*model.BusinessTripApplication, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Destination = strings.TrimSpace(input.Destination)
	input.Purpose = strings.TrimSpace(input.Purpose)
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	if input.EstimatedCost.IsNegative() {
		return nil, validationError("estimated_cost", "0以上の値を入力してください")
	}

	start, _ := time.Parse(dateLayout, input.StartDate)
	end, _ := time.Parse(dateLayout, input.EndDate)
	if end.Before(start) {
		return nil, validationError("end_date", "出張終了日は開始日以降の日付を指定してください")
	}

	now := s.now()
	app := &model.BusinessTripApplication{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         input.Title,
		Description:   input.Description,
		Destination:   input.Destination,
		StartDate:     start,
		EndDate:       end,
		Purpose:       input.Purpose,
		Overseas:      input.Overseas,
		EstimatedCost: input.EstimatedCost,
		Status:        model.ApplicationStatusPending,
		SubmittedAt:   now,
	}

	if err := s.applyAllowance(ctx, userID, app); err != nil {
		return nil, err
	}

	notification := newNotification(userID, "出張申請が作成されました",
		fmt.Sprintf("%sの申請が正常に作成されました。", app.Title), model.NotificationTypeSuccess)

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateBusinessTripApplication(ctx, app); err != nil {
			return err
		}
		return tx.CreateNotification(ctx, notification)
	})
	if err != nil {
		logrus.Errorf("failed to create business trip application: %v", err)
		return nil, backendError(ctx, err)
	}

	publishNotification(ctx, s.queue, notification)

	return app, nil
}

// applyAllowance fills the calculated allowances from the user's own latest
// regulation of their company. Trips without a matching regulation are left blank.
func (s *ApplicationService) applyAllowance(ctx context.Context, userID string, app *model.BusinessTripApplication) error {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		return backendError(ctx, err)
	}
	if profile.Company == "" {
		return nil
	}

	regulation, err := s.store.FindLatestRegulation(ctx, userID, profile.Company)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil
		}
		return backendError(ctx, err)
	}

	position, ok := findPosition(regulation.Positions, profile.Position)
	if !ok {
		logrus.Infof("no position %q in regulation %s, allowance not calculated", profile.Position, regulation.ID)
		return nil
	}

	allowance := CalculateAllowance(regulation, position, TripDays(app.StartDate, app.EndDate), app.Overseas)
	allowance.apply(app, s.now())

	return nil
}

func findPosition(positions []model.RegulationPosition, name string) (model.RegulationPosition, bool) {
	for _, p := range positions {
		if p.PositionName == name {
			return p, true
		}
	}
	return model.RegulationPosition{}, false
}

// UpdateStatus changes the status of an application owned by userID.
func (s *ApplicationService) UpdateStatus(ctx context.Context, userID string, kind model.ApplicationKind, id string, status model.ApplicationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.checkOwner(ctx, userID, kind, id); err != nil {
		return err
	}

	var approvedAt *time.Time
	if status == model.ApplicationStatusApproved {
		now := s.now()
		approvedAt = &now
	}

	notification := newNotification(userID, "申請ステータスが更新されました",
		fmt.Sprintf("申請が%sに更新されました。", statusLabel(status)), statusNotificationType(status))

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		if kind == model.ApplicationKindExpense {
			err = tx.UpdateExpenseApplicationStatus(ctx, id, status, approvedAt)
		} else {
			err = tx.UpdateBusinessTripApplicationStatus(ctx, id, status, approvedAt)
		}
		if err != nil {
			return err
		}
		return tx.CreateNotification(ctx, notification)
	})
	if err != nil {
		logrus.Errorf("failed to update %s application %s: %v", kind, id, err)
		return backendError(ctx, err)
	}

	publishNotification(ctx, s.queue, notification)

	return nil
}

// Delete removes an application owned by userID.
func (s *ApplicationService) Delete(ctx context.Context, userID string, kind model.ApplicationKind, id string) error {
	if err := s.checkOwner(ctx, userID, kind, id); err != nil {
		return err
	}

	notification := newNotification(userID, "申請が削除されました", "申請が正常に削除されました。", model.NotificationTypeInfo)

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		if kind == model.ApplicationKindExpense {
			err = tx.DeleteExpenseApplication(ctx, id)
		} else {
			err = tx.DeleteBusinessTripApplication(ctx, id)
		}
		if err != nil {
			return err
		}
		return tx.CreateNotification(ctx, notification)
	})
	if err != nil {
		logrus.Errorf("failed to delete %s application %s: %v", kind, id, err)
		return backendError(ctx, err)
	}

	publishNotification(ctx, s.queue, notification)

	return nil
}

func (s *ApplicationService) ListExpenses(ctx context.Context, userID string) ([]*model.ExpenseApplication, error) {
	apps, err := s.store.ListExpenseApplications(ctx, userID)
	if err != nil {
		return nil, backendError(ctx, err)
	}
	return apps, nil
}

func (s *ApplicationService) ListBusinessTrips(ctx context.Context, userID string) ([]*model.BusinessTripApplication, error) {
	apps, err := s.store.ListBusinessTripApplications(ctx, userID)
	if err != nil {
		return nil, backendError(ctx, err)
	}
	return apps, nil
}

func (s *ApplicationService) checkOwner(ctx context.Context, userID string, kind model.ApplicationKind, id string) error {
	var owner string
	switch kind {
	case model.ApplicationKindExpense:
		app, err := s.store.GetExpenseApplication(ctx, id)
		if err != nil {
			return backendError(ctx, err)
		}
		owner = app.UserID
	case model.ApplicationKindBusinessTrip:
		app, err := s.store.GetBusinessTripApplication(ctx, id)
		if err != nil {
			return backendError(ctx, err)
		}
		owner = app.UserID
	default:
		return ErrInvalidApplicationKind
	}

	if owner != userID {
		return ErrNotFound
	}
	return nil
}

func newNotification(userID, title, message string, typ model.NotificationType) *model.Notification {
	return &model.Notification{
		ID:      uuid.New().String(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
	}
}

func statusLabel(status model.ApplicationStatus) string {
	switch status {
	case model.ApplicationStatusPending:
		return "待機中"
	case model.ApplicationStatusApproved:
		return "承認済み"
	case model.ApplicationStatusRejected:
		return "却下"
	case model.ApplicationStatusCancelled:
		return "キャンセル"
	}
	return string(status)
}

func statusNotificationType(status model.ApplicationStatus) model.NotificationType {
	switch status {
	case model.ApplicationStatusApproved:
		return model.NotificationTypeSuccess
	case model.ApplicationStatusRejected:
		return model.NotificationTypeError
	}
	return model.NotificationTypeInfo
}

func parseOptionalDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil
	}
	return &date
}
