package model

import (
	"time"
)

type RegulationStatus string

const (
	RegulationStatusDraft    RegulationStatus = "draft"
	RegulationStatusActive   RegulationStatus = "active"
	RegulationStatusArchived RegulationStatus = "archived"
)

const RegulationTypeDomestic = "domestic"

// Regulation is one revision of a company travel expense regulation.
// Revisions of the same (user, company) form a chain: BaseRegulationID points
// to the first revision, ParentRegulationID to the revision that was latest
// when this one was created.
type Regulation struct {
	ID                          string               `gorm:"primaryKey;uuid;not null" json:"id"`
	UserID                      string               `gorm:"uuid;not null;uniqueIndex:idx_regulation_revision,priority:1;index:idx_regulation_latest,unique,where:is_latest_version = true,priority:1" json:"user_id"`
	RegulationName              string               `gorm:"not null" json:"regulation_name"`
	RegulationType              string               `gorm:"not null" json:"regulation_type"`
	CompanyName                 string               `gorm:"not null;uniqueIndex:idx_regulation_revision,priority:2;index:idx_regulation_latest,unique,where:is_latest_version = true,priority:2" json:"company_name"`
	CompanyAddress              string               `json:"company_address"`
	Representative              string               `json:"representative"`
	DistanceThreshold           int                  `gorm:"not null" json:"distance_threshold"`
	ImplementationDate          time.Time            `gorm:"type:date;not null" json:"implementation_date"`
	RevisionNumber              int                  `gorm:"not null;uniqueIndex:idx_regulation_revision,priority:3" json:"revision_number"`
	Status                      RegulationStatus     `gorm:"not null" json:"status"`
	IsTransportationRealExpense bool                 `gorm:"not null" json:"is_transportation_real_expense"`
	IsAccommodationRealExpense  bool                 `gorm:"not null" json:"is_accommodation_real_expense"`
	RegulationFullText          string               `gorm:"type:text" json:"regulation_full_text"`
	BaseRegulationID            *string              `gorm:"uuid;index" json:"base_regulation_id"`
	ParentRegulationID          *string              `gorm:"uuid" json:"parent_regulation_id"`
	IsLatestVersion             bool                 `gorm:"not null" json:"is_latest_version"`
	Positions                   []RegulationPosition `gorm:"foreignKey:RegulationID;constraint:OnDelete:CASCADE" json:"positions,omitempty"`
	CreatedAt                   time.Time            `json:"created_at"`
	UpdatedAt                   time.Time            `json:"updated_at"`
}

func (Regulation) TableName() string {
	return "regulations"
}

// ChainID returns the id of the first revision of the chain the regulation belongs to.
func (r *Regulation) ChainID() string {
	if r.BaseRegulationID != nil && *r.BaseRegulationID != "" {
		return *r.BaseRegulationID
	}

	return r.ID
}

// RegulationPosition carries the allowance schedule of one position, amounts in yen.
type RegulationPosition struct {
	ID                              string    `gorm:"primaryKey;uuid;not null" json:"id"`
	RegulationID                    string    `gorm:"uuid;not null;index" json:"regulation_id"`
	PositionName                    string    `gorm:"not null" json:"position_name"`
	SortOrder                       int       `gorm:"not null" json:"sort_order"`
	DomesticDailyAllowance          int64     `json:"domestic_daily_allowance"`
	DomesticAccommodationAllowance  int64     `json:"domestic_accommodation_allowance"`
	DomesticTransportationAllowance int64     `json:"domestic_transportation_allowance"`
	OverseasDailyAllowance          int64     `json:"overseas_daily_allowance"`
	OverseasAccommodationAllowance  int64     `json:"overseas_accommodation_allowance"`
	OverseasPreparationAllowance    int64     `json:"overseas_preparation_allowance"`
	OverseasTransportationAllowance int64     `json:"overseas_transportation_allowance"`
	CreatedAt                       time.Time `json:"created_at"`
}

func (RegulationPosition) TableName() string {
	return "regulation_positions"
}
