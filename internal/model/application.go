package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusApproved  ApplicationStatus = "approved"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusCancelled ApplicationStatus = "cancelled"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusCancelled:
		return true
	}
	return false
}

type ApplicationKind string

const (
	ApplicationKindExpense      ApplicationKind = "expense"
	ApplicationKindBusinessTrip ApplicationKind = "business-trip"
)

type ExpenseApplication struct {
	ID              string            `gorm:"primaryKey;uuid;not null" json:"id"`
	UserID          string            `gorm:"uuid;not null;index" json:"user_id"`
	Title           string            `gorm:"not null" json:"title"`
	Description     string            `json:"description"`
	Amount          decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"amount"`
	Currency        string            `gorm:"not null" json:"currency"`
	Status          ApplicationStatus `gorm:"not null;index" json:"status"`
	Category        string            `json:"category"`
	ReceiptURL      string            `json:"receipt_url"`
	PeriodStartDate *time.Time        `gorm:"type:date" json:"period_start_date"`
	PeriodEndDate   *time.Time        `gorm:"type:date" json:"period_end_date"`
	Reason          string            `json:"reason"`
	ApprovalComment string            `json:"approval_comment"`
	RejectionReason string            `json:"rejection_reason"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	ApprovedAt      *time.Time        `json:"approved_at"`
	ApprovedBy      *string           `json:"approved_by"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (ExpenseApplication) TableName() string {
	return "expense_applications"
}

type BusinessTripApplication struct {
	ID                               string            `gorm:"primaryKey;uuid;not null" json:"id"`
	UserID                           string            `gorm:"uuid;not null;index" json:"user_id"`
	Title                            string            `gorm:"not null" json:"title"`
	Description                      string            `json:"description"`
	Destination                      string            `gorm:"not null" json:"destination"`
	StartDate                        time.Time         `gorm:"type:date;not null" json:"start_date"`
	EndDate                          time.Time         `gorm:"type:date;not null" json:"end_date"`
	Purpose                          string            `json:"purpose"`
	Overseas                         bool              `gorm:"not null" json:"overseas"`
	EstimatedCost                    decimal.Decimal   `gorm:"type:decimal(14,2);not null" json:"estimated_cost"`
	Status                           ApplicationStatus `gorm:"not null;index" json:"status"`
	SubmittedAt                      time.Time         `json:"submitted_at"`
	ApprovedAt                       *time.Time        `json:"approved_at"`
	ApprovedBy                       *string           `json:"approved_by"`
	CalculatedDomesticDailyAllowance *int64            `json:"calculated_domestic_daily_allowance"`
	CalculatedOverseasDailyAllowance *int64            `json:"calculated_overseas_daily_allowance"`
	CalculatedTransportation         *int64            `json:"calculated_transportation_allowance"`
	CalculatedAccommodation          *int64            `json:"calculated_accommodation_allowance"`
	CalculatedMiscAllowance          *int64            `json:"calculated_misc_allowance"`
	CalculatedTotalAllowance         *int64            `json:"calculated_total_allowance"`
	AllowanceCalculationDate         *time.Time        `json:"allowance_calculation_date"`
	CreatedAt                        time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt                        time.Time         `json:"updated_at"`
}

func (BusinessTripApplication) TableName() string {
	return "business_trip_applications"
}
