package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/emrgen/travelexpense/internal/model"
	"github.com/emrgen/travelexpense/internal/render"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type PositionInput struct {
	Name                   string `json:"name" yaml:"name" validate:"required"`
	DomesticDailyAllowance int64  `json:"domestic_daily_allowance" yaml:"domestic_daily_allowance" validate:"gte=0"`
	DomesticAccommodation  int64  `json:"domestic_accommodation" yaml:"domestic_accommodation" validate:"gte=0"`
	DomesticTransportation int64  `json:"domestic_transportation" yaml:"domestic_transportation" validate:"gte=0"`
	OverseasDailyAllowance int64  `json:"overseas_daily_allowance" yaml:"overseas_daily_allowance" validate:"gte=0"`
	OverseasAccommodation  int64  `json:"overseas_accommodation" yaml:"overseas_accommodation" validate:"gte=0"`
	OverseasPreparation    int64  `json:"overseas_preparation" yaml:"overseas_preparation" validate:"gte=0"`
	OverseasTransportation int64  `json:"overseas_transportation" yaml:"overseas_transportation" validate:"gte=0"`
}

// RegulationInput is the editor payload of a regulation.
type RegulationInput struct {
	CompanyName                 string                 `json:"company_name" yaml:"company_name" validate:"required"`
	Representative              string                 `json:"representative" yaml:"representative" validate:"required"`
	CompanyAddress              string                 `json:"company_address" yaml:"company_address" validate:"required"`
	Positions                   []PositionInput        `json:"positions" yaml:"positions" validate:"min=1,dive"`
	DistanceThreshold           int                    `json:"distance_threshold" yaml:"distance_threshold" validate:"gte=0"`
	ImplementationDate          string                 `json:"implementation_date" yaml:"implementation_date" validate:"required,datetime=2006-01-02"`
	IsTransportationRealExpense bool                   `json:"is_transportation_real_expense" yaml:"is_transportation_real_expense"`
	IsAccommodationRealExpense  bool                   `json:"is_accommodation_real_expense" yaml:"is_accommodation_real_expense"`
	Status                      model.RegulationStatus `json:"status,omitempty" yaml:"status" validate:"omitempty,oneof=draft active archived"`
}

// normalize trims the text fields, validates the input and returns the implementation date.
func (in *RegulationInput) normalize() (time.Time, error) {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Representative = strings.TrimSpace(in.Representative)
	in.CompanyAddress = strings.TrimSpace(in.CompanyAddress)
	in.ImplementationDate = strings.TrimSpace(in.ImplementationDate)
	for i := range in.Positions {
		in.Positions[i].Name = strings.TrimSpace(in.Positions[i].Name)
	}

	if err := validateStruct(in); err != nil {
		return time.Time{}, err
	}

	date, err := time.Parse(dateLayout, in.ImplementationDate)
	if err != nil {
		return time.Time{}, validationError("implementation_date", fieldMessages["ImplementationDate"])
	}

	if render.EraYear(date) < 1 {
		return time.Time{}, validationError("implementation_date",
			fmt.Sprintf("実施日は%d年以降の日付を指定してください", render.ReiwaEpochYear+1))
	}

	return date, nil
}

func (in *RegulationInput) status() model.RegulationStatus {
	if in.Status == "" {
		return model.RegulationStatusActive
	}
	return in.Status
}

func (in *RegulationInput) positions(regulationID string) []model.RegulationPosition {
	positions := make([]model.RegulationPosition, 0, len(in.Positions))
	for i, p := range in.Positions {
		positions = append(positions, model.RegulationPosition{
			ID:                              uuid.New().String(),
			RegulationID:                    regulationID,
			PositionName:                    p.Name,
			SortOrder:                       i,
			DomesticDailyAllowance:          p.DomesticDailyAllowance,
			DomesticAccommodationAllowance:  p.DomesticAccommodation,
			DomesticTransportationAllowance: p.DomesticTransportation,
			OverseasDailyAllowance:          p.OverseasDailyAllowance,
			OverseasAccommodationAllowance:  p.OverseasAccommodation,
			OverseasPreparationAllowance:    p.OverseasPreparation,
			OverseasTransportationAllowance: p.OverseasTransportation,
		})
	}
	return positions
}

func (in *RegulationInput) document(date time.Time) render.Document {
	doc := render.Document{
		Company: render.Company{
			Name:           in.CompanyName,
			Address:        in.CompanyAddress,
			Representative: in.Representative,
		},
		DistanceThreshold:         in.DistanceThreshold,
		TransportationRealExpense: in.IsTransportationRealExpense,
		AccommodationRealExpense:  in.IsAccommodationRealExpense,
		ImplementationDate:        date,
	}
	for _, p := range in.Positions {
		doc.Positions = append(doc.Positions, render.Position{
			Name:                   p.Name,
			DomesticDaily:          p.DomesticDailyAllowance,
			DomesticAccommodation:  p.DomesticAccommodation,
			DomesticTransportation: p.DomesticTransportation,
			OverseasDaily:          p.OverseasDailyAllowance,
			OverseasAccommodation:  p.OverseasAccommodation,
			OverseasPreparation:    p.OverseasPreparation,
			OverseasTransportation: p.OverseasTransportation,
		})
	}
	return doc
}

// regulationDocument rebuilds the render input from a stored regulation.
func regulationDocument(r *model.Regulation) render.Document {
	doc := render.Document{
		Company: render.Company{
			Name:           r.CompanyName,
			Address:        r.CompanyAddress,
			Representative: r.Representative,
		},
		DistanceThreshold:         r.DistanceThreshold,
		TransportationRealExpense: r.IsTransportationRealExpense,
		AccommodationRealExpense:  r.IsAccommodationRealExpense,
		ImplementationDate:        r.ImplementationDate,
	}
	for _, p := range r.Positions {
		doc.Positions = append(doc.Positions, render.Position{
			Name:                   p.PositionName,
			DomesticDaily:          p.DomesticDailyAllowance,
			DomesticAccommodation:  p.DomesticAccommodationAllowance,
			DomesticTransportation: p.DomesticTransportationAllowance,
			OverseasDaily:          p.OverseasDailyAllowance,
			OverseasAccommodation:  p.OverseasAccommodationAllowance,
			OverseasPreparation:    p.OverseasPreparationAllowance,
			OverseasTransportation: p.OverseasTransportationAllowance,
		})
	}
	return doc
}

func regulationName(companyName string) string {
	return companyName + " 出張旅費規程"
}

func versionName(revision int) string {
	if revision == 1 {
		return "初版"
	}
	return fmt.Sprintf("第%d版", revision)
}

func changeSummary(revision int) string {
	if revision == 1 {
		return "初版作成"
	}
	return fmt.Sprintf("改訂版%dとして作成", revision)
}
