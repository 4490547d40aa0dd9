package model

import (
	"time"

	"gorm.io/datatypes"
)

// RegulationVersion is an append-only snapshot written when a new revision
// is added to a regulation chain. Snapshots are kept after the revision they
// describe is deleted.
type RegulationVersion struct {
	ID                          string           `gorm:"primaryKey;uuid;not null" json:"id"`
	BaseRegulationID            string           `gorm:"uuid;not null;index" json:"base_regulation_id"`
	RegulationID                string           `gorm:"uuid;not null;index" json:"regulation_id"`
	UserID                      string           `gorm:"uuid;not null" json:"user_id"`
	VersionNumber               int              `gorm:"not null" json:"version_number"`
	VersionName                 string           `json:"version_name"`
	RegulationName              string           `json:"regulation_name"`
	CompanyName                 string           `json:"company_name"`
	CompanyAddress              string           `json:"company_address"`
	Representative              string           `json:"representative"`
	DistanceThreshold           int              `json:"distance_threshold"`
	ImplementationDate          time.Time        `gorm:"type:date" json:"implementation_date"`
	IsTransportationRealExpense bool             `json:"is_transportation_real_expense"`
	IsAccommodationRealExpense  bool             `json:"is_accommodation_real_expense"`
	Status                      RegulationStatus `json:"status"`
	Positions                   datatypes.JSON   `json:"positions"`
	FullText                    []byte           `json:"-"`
	Compression                 string           `json:"compression"` // codec used for FullText
	Text                        string           `gorm:"-" json:"text,omitempty"`
	ChangeSummary               string           `json:"change_summary"`
	CreatedBy                   string           `json:"created_by"`
	CreatedAt                   time.Time        `json:"created_at"`
}

func (RegulationVersion) TableName() string {
	return "regulation_versions"
}
