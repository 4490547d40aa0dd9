package store

import (
	"context"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
)

type Store interface {
	RegulationStore
	RegulationPositionStore
	RegulationVersionStore
	UserStore
	ProfileStore
	ApplicationStore
	NotificationStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

// RegulationFilter narrows ListRegulations.
type RegulationFilter struct {
	Search     string
	LatestOnly bool
}

type RegulationStore interface {
	// CreateRegulation creates a regulation row, positions are created separately.
	CreateRegulation(ctx context.Context, regulation *model.Regulation) error
	// GetRegulation retrieves a regulation with its positions.
	GetRegulation(ctx context.Context, id string) (*model.Regulation, error)
	// ListRegulations retrieves the regulations of a user ordered by company and revision.
	ListRegulations(ctx context.Context, userID string, filter RegulationFilter) ([]*model.Regulation, error)
	// ListCompanyRegulations retrieves the revision chain of a company, revision ascending.
	ListCompanyRegulations(ctx context.Context, userID, companyName string) ([]*model.Regulation, error)
	// FindLatestRegulation retrieves the latest revision of a company chain owned by userID.
	FindLatestRegulation(ctx context.Context, userID, companyName string) (*model.Regulation, error)
	// ScanRegulationChains retrieves the chain columns of every regulation.
	ScanRegulationChains(ctx context.Context) ([]*model.Regulation, error)
	// UpdateRegulation updates the regulation columns, positions are untouched.
	UpdateRegulation(ctx context.Context, regulation *model.Regulation) error
	// UnsetLatestRegulation clears the latest flag of every revision of a company.
	UnsetLatestRegulation(ctx context.Context, userID, companyName string) error
	// SetLatestRegulation marks a regulation as the latest of its chain.
	SetLatestRegulation(ctx context.Context, id string) error
	// DeleteRegulation deletes a regulation by ID.
	DeleteRegulation(ctx context.Context, id string) error
}

type RegulationPositionStore interface {
	// CreateRegulationPositions inserts the positions of a regulation.
	CreateRegulationPositions(ctx context.Context, positions []model.RegulationPosition) error
	// ListRegulationPositions retrieves the positions of a regulation in sort order.
	ListRegulationPositions(ctx context.Context, regulationID string) ([]model.RegulationPosition, error)
	// DeleteRegulationPositions deletes every position of a regulation.
	DeleteRegulationPositions(ctx context.Context, regulationID string) error
}

type RegulationVersionStore interface {
	// CreateRegulationVersion appends a version snapshot.
	CreateRegulationVersion(ctx context.Context, version *model.RegulationVersion) error
	// ListRegulationVersions retrieves the snapshots of a chain by base regulation ID.
	ListRegulationVersions(ctx context.Context, baseRegulationID string) ([]*model.RegulationVersion, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, profile *model.Profile) error
}

type ApplicationStore interface {
	CreateExpenseApplication(ctx context.Context, app *model.ExpenseApplication) error
	GetExpenseApplication(ctx context.Context, id string) (*model.ExpenseApplication, error)
	// ListExpenseApplications retrieves the expense applications of a user, newest first.
	ListExpenseApplications(ctx context.Context, userID string) ([]*model.ExpenseApplication, error)
	UpdateExpenseApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus, approvedAt *time.Time) error
	DeleteExpenseApplication(ctx context.Context, id string) error

	CreateBusinessTripApplication(ctx context.Context, app *model.BusinessTripApplication) error
	GetBusinessTripApplication(ctx context.Context, id string) (*model.BusinessTripApplication, error)
	// ListBusinessTripApplications retrieves the business trip applications of a user, newest first.
	ListBusinessTripApplications(ctx context.Context, userID string) ([]*model.BusinessTripApplication, error)
	UpdateBusinessTripApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus, approvedAt *time.Time) error
	DeleteBusinessTripApplication(ctx context.Context, id string) error
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, notification *model.Notification) error
	// ListNotifications retrieves the newest notifications of a user.
	ListNotifications(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
}
