package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/store"
	"github.com/shopspring/decimal"
)

const DefaultRecentApplications = 5

type Stats struct {
	MonthlyExpenses      decimal.Decimal `json:"monthly_expenses"`
	MonthlyBusinessTrips decimal.Decimal `json:"monthly_business_trips"`
	PendingApplications  int             `json:"pending_applications"`
	ApprovedApplications int             `json:"approved_applications"`

	// ApprovedAmount sums every approved application regardless of month.
	ApprovedAmount        decimal.Decimal `json:"approved_amount"`
	MonthlyApprovedAmount decimal.Decimal `json:"monthly_approved_amount"`
}

type Applications struct {
	Expense      []*model.ExpenseApplication      `json:"expense"`
	BusinessTrip []*model.BusinessTripApplication `json:"business_trip"`
}

type RecentApplication struct {
	ID        string                  `json:"id"`
	Kind      model.ApplicationKind   `json:"kind"`
	Title     string                  `json:"title"`
	Status    model.ApplicationStatus `json:"status"`
	Amount    decimal.Decimal         `json:"amount"`
	CreatedAt time.Time               `json:"created_at"`
}

type UserData struct {
	Profile *model.Profile `json:"profile"`

	// ProfileDerived is set when no profile row exists and Profile was built from the account.
	ProfileDerived bool                  `json:"profile_derived"`
	Applications   Applications          `json:"applications"`
	Notifications  []*model.Notification `json:"notifications"`
	Stats          Stats                 `json:"stats"`
	Recent         []RecentApplication   `json:"recent"`
}

func NewDashboardService(store store.Store) *DashboardService {
	return &DashboardService{
		store: store,
		now:   time.Now,
	}
}

// DashboardService aggregates the data shown on the user dashboard.
type DashboardService struct {
	store store.Store
	now   func() time.Time
}

func (s *DashboardService) GetUserData(ctx context.Context, userID string) (*UserData, error) {
	data := &UserData{}

	profile, err := s.store.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, backendError(ctx, err)
		}
		data.Profile = derivedProfile(user)
		data.ProfileDerived = true
	case err != nil:
		return nil, backendError(ctx, err)
	default:
		data.Profile = profile
	}

	if data.Applications.Expense, err = s.store.ListExpenseApplications(ctx, userID); err != nil {
		return nil, backendError(ctx, err)
	}
	if data.Applications.BusinessTrip, err = s.store.ListBusinessTripApplications(ctx, userID); err != nil {
		return nil, backendError(ctx, err)
	}
	if data.Notifications, err = s.store.ListNotifications(ctx, userID, DefaultNotificationLimit); err != nil {
		return nil, backendError(ctx, err)
	}

	data.Stats = ComputeStats(s.now(), data.Applications.Expense, data.Applications.BusinessTrip)
	data.Recent = RecentApplications(data.Applications.Expense, data.Applications.BusinessTrip, DefaultRecentApplications)

	return data, nil
}

func derivedProfile(user *model.User) *model.Profile {
	return &model.Profile{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.Email,
		Role:      model.RoleUser,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func sameMonth(t, now time.Time) bool {
	t = t.In(now.Location())
	return t.Year() == now.Year() && t.Month() == now.Month()
}

// ComputeStats summarises the applications of a user for the calendar month of now.
func ComputeStats(now time.Time, expenses []*model.ExpenseApplication, trips []*model.BusinessTripApplication) Stats {
	stats := Stats{
		MonthlyExpenses:       decimal.Zero,
		MonthlyBusinessTrips:  decimal.Zero,
		ApprovedAmount:        decimal.Zero,
		MonthlyApprovedAmount: decimal.Zero,
	}

	count := func(status model.ApplicationStatus, amount decimal.Decimal, createdAt time.Time) {
		switch status {
		case model.ApplicationStatusPending:
			stats.PendingApplications++
		case model.ApplicationStatusApproved:
			stats.ApprovedApplications++
			stats.ApprovedAmount = stats.ApprovedAmount.Add(amount)
			if sameMonth(createdAt, now) {
				stats.MonthlyApprovedAmount = stats.MonthlyApprovedAmount.Add(amount)
			}
		}
	}

	for _, app := range expenses {
		if sameMonth(app.CreatedAt, now) {
			stats.MonthlyExpenses = stats.MonthlyExpenses.Add(app.Amount)
		}
		count(app.Status, app.Amount, app.CreatedAt)
	}
	for _, app := range trips {
		if sameMonth(app.CreatedAt, now) {
			stats.MonthlyBusinessTrips = stats.MonthlyBusinessTrips.Add(app.EstimatedCost)
		}
		count(app.Status, app.EstimatedCost, app.CreatedAt)
	}

	return stats
}

// RecentApplications merges both kinds newest first and keeps the first n.
func RecentApplications(expenses []*model.ExpenseApplication, trips []*model.BusinessTripApplication, n int) []RecentApplication {
	recent := make([]RecentApplication, 0, len(expenses)+len(trips))
	for _, app := range expenses {
		recent = append(recent, RecentApplication{
			ID:        app.ID,
			Kind:      model.ApplicationKindExpense,
			Title:     app.Title,
			Status:    app.Status,
			Amount:    app.Amount,
			CreatedAt: app.CreatedAt,
		})
	}
	for _, app := range trips {
		recent = append(recent, RecentApplication{
			ID:        app.ID,
			Kind:      model.ApplicationKindBusinessTrip,
			Title:     app.Title,
			Status:    app.Status,
			Amount:    app.EstimatedCost,
			CreatedAt: app.CreatedAt,
		})
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})

	if n >= 0 && len(recent) > n {
		recent = recent[:n]
	}

	return recent
}
