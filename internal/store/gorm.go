package store

import (
	"context"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func orderedPositions(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order asc")
}

func (g *GormStore) CreateRegulation(ctx context.Context, regulation *model.Regulation) error {
	return translate(g.db.WithContext(ctx).Omit(clause.Associations).Create(regulation).Error)
}

func (g *GormStore) GetRegulation(ctx context.Context, id string) (*model.Regulation, error) {
	var regulation model.Regulation
	err := g.db.WithContext(ctx).Preload("Positions", orderedPositions).Where("id = ?", id).First(&regulation).Error
	if err != nil {
		return nil, translate(err)
	}

	return &regulation, nil
}

func (g *GormStore) ListRegulations(ctx context.Context, userID string, filter RegulationFilter) ([]*model.Regulation, error) {
	var regulations []*model.Regulation
	query := g.db.WithContext(ctx).Preload("Positions", orderedPositions).Where("user_id = ?", userID)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("(regulation_name LIKE ? OR company_name LIKE ?)", like, like)
	}
	if filter.LatestOnly {
		query = query.Where("is_latest_version = ?", true)
	}

	err := query.Order("company_name asc").Order("revision_number desc").Find(&regulations).Error
	return regulations, translate(err)
}

func (g *GormStore) ListCompanyRegulations(ctx context.Context, userID, companyName string) ([]*model.Regulation, error) {
	var regulations []*model.Regulation
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND company_name = ?", userID, companyName).
		Order("revision_number asc").
		Find(&regulations).Error
	return regulations, translate(err)
}

func (g *GormStore) FindLatestRegulation(ctx context.Context, userID, companyName string) (*model.Regulation, error) {
	var regulation model.Regulation
	err := g.db.WithContext(ctx).
		Preload("Positions", orderedPositions).
		Where("user_id = ? AND company_name = ? AND is_latest_version = ?", userID, companyName, true).
		First(&regulation).Error
	if err != nil {
		return nil, translate(err)
	}

	return &regulation, nil
}

func (g *GormStore) ScanRegulationChains(ctx context.Context) ([]*model.Regulation, error) {
	var regulations []*model.Regulation
	err := g.db.WithContext(ctx).
		Select("id", "user_id", "company_name", "revision_number", "is_latest_version", "base_regulation_id").
		Order("user_id asc").Order("company_name asc").Order("revision_number asc").
		Find(&regulations).Error
	return regulations, translate(err)
}

func (g *GormStore) UpdateRegulation(ctx context.Context, regulation *model.Regulation) error {
	return translate(g.db.WithContext(ctx).Omit(clause.Associations).Save(regulation).Error)
}

func (g *GormStore) UnsetLatestRegulation(ctx context.Context, userID, companyName string) error {
	err := g.db.WithContext(ctx).Model(&model.Regulation{}).
		Where("user_id = ? AND company_name = ? AND is_latest_version = ?", userID, companyName, true).
		Update("is_latest_version", false).Error
	return translate(err)
}

func (g *GormStore) SetLatestRegulation(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Model(&model.Regulation{}).Where("id = ?", id).Update("is_latest_version", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (g *GormStore) DeleteRegulation(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Regulation{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	logrus.Infof("deleted regulation %s", id)
	return nil
}

func (g *GormStore) CreateRegulationPositions(ctx context.Context, positions []model.RegulationPosition) error {
	if len(positions) == 0 {
		return nil
	}

	return translate(g.db.WithContext(ctx).Create(&positions).Error)
}

func (g *GormStore) ListRegulationPositions(ctx context.Context, regulationID string) ([]model.RegulationPosition, error) {
	var positions []model.RegulationPosition
	err := g.db.WithContext(ctx).Where("regulation_id = ?", regulationID).Order("sort_order asc").Find(&positions).Error
	return positions, translate(err)
}

func (g *GormStore) DeleteRegulationPositions(ctx context.Context, regulationID string) error {
	return translate(g.db.WithContext(ctx).Where("regulation_id = ?", regulationID).Delete(&model.RegulationPosition{}).Error)
}

func (g *GormStore) CreateRegulationVersion(ctx context.Context, version *model.RegulationVersion) error {
	return translate(g.db.WithContext(ctx).Create(version).Error)
}

func (g *GormStore) ListRegulationVersions(ctx context.Context, baseRegulationID string) ([]*model.RegulationVersion, error) {
	var versions []*model.RegulationVersion
	err := g.db.WithContext(ctx).Where("base_regulation_id = ?", baseRegulationID).Order("version_number asc").Find(&versions).Error
	return versions, translate(err)
}

func (g *GormStore) CreateUser(ctx context.Context, user *model.User) error {
	return translate(g.db.WithContext(ctx).Create(user).Error)
}

func (g *GormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (g *GormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := g.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (g *GormStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	res := g.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (g *GormStore) CreateProfile(ctx context.Context, profile *model.Profile) error {
	return translate(g.db.WithContext(ctx).Create(profile).Error)
}

func (g *GormStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (g *GormStore) UpdateProfile(ctx context.Context, profile *model.Profile) error {
	return translate(g.db.WithContext(ctx).Save(profile).Error)
}

func (g *GormStore) CreateExpenseApplication(ctx context.Context, app *model.ExpenseApplication) error {
	return translate(g.db.WithContext(ctx).Create(app).Error)
}

func (g *GormStore) GetExpenseApplication(ctx context.Context, id string) (*model.ExpenseApplication, error) {
	var app model.ExpenseApplication
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (g *GormStore) ListExpenseApplications(ctx context.Context, userID string) ([]*model.ExpenseApplication, error) {
	var apps []*model.ExpenseApplication
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&apps).Error
	return apps, translate(err)
}

func (g *GormStore) UpdateExpenseApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus, approvedAt *time.Time) error {
	return g.updateStatus(ctx, &model.ExpenseApplication{}, id, status, approvedAt)
}

func (g *GormStore) DeleteExpenseApplication(ctx context.Context, id string) error {
	return g.deleteByID(ctx, &model.ExpenseApplication{}, id)
}

func (g *GormStore) CreateBusinessTripApplication(ctx context.Context, app *model.BusinessTripApplication) error {
	return translate(g.db.WithContext(ctx).Create(app).Error)
}

func (g *GormStore) GetBusinessTripApplication(ctx context.Context, id string) (*model.BusinessTripApplication, error) {
	var app model.BusinessTripApplication
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, translate(err)
	}
	return &app, nil
}

func (g *GormStore) ListBusinessTripApplications(ctx context.Context, userID string) ([]*model.BusinessTripApplication, error) {
	var apps []*model.BusinessTripApplication
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&apps).Error
	return apps, translate(err)
}

func (g *GormStore) UpdateBusinessTripApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus, approvedAt *time.Time) error {
	return g.updateStatus(ctx, &model.BusinessTripApplication{}, id, status, approvedAt)
}

func (g *GormStore) DeleteBusinessTripApplication(ctx context.Context, id string) error {
	return g.deleteByID(ctx, &model.BusinessTripApplication{}, id)
}

func (g *GormStore) updateStatus(ctx context.Context, table any, id string, status model.ApplicationStatus, approvedAt *time.Time) error {
	res := g.db.WithContext(ctx).Model(table).Where("id = ?", id).Updates(map[string]any{
		"status":      status,
		"approved_at": approvedAt,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (g *GormStore) deleteByID(ctx context.Context, table any, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(table)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (g *GormStore) CreateNotification(ctx context.Context, notification *model.Notification) error {
	return translate(g.db.WithContext(ctx).Create(notification).Error)
}

func (g *GormStore) ListNotifications(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	query := g.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&notifications).Error
	return notifications, translate(err)
}

func (g *GormStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res := g.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
