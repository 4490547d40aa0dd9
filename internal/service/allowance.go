package service

import (
	"time"

	"github.com/emrgen/travelexpense/internal/model"
)

// Allowance is the travel allowance of one trip in yen.
type Allowance struct {
	Daily          int64 `json:"daily"`
	Transportation int64 `json:"transportation"`
	Accommodation  int64 `json:"accommodation"`
	Preparation    int64 `json:"preparation"`
	Overseas       bool  `json:"overseas"`
}

func (a Allowance) Total() int64 {
	return a.Daily + a.Transportation + a.Accommodation + a.Preparation
}

func (a Allowance) apply(app *model.BusinessTripApplication, now time.Time) {
	var zero int64
	daily, transportation, accommodation, misc, total := a.Daily, a.Transportation, a.Accommodation, a.Preparation, a.Total()

	if a.Overseas {
		app.CalculatedDomesticDailyAllowance = &zero
		app.CalculatedOverseasDailyAllowance = &daily
	} else {
		app.CalculatedDomesticDailyAllowance = &daily
		app.CalculatedOverseasDailyAllowance = &zero
	}
	app.CalculatedTransportation = &transportation
	app.CalculatedAccommodation = &accommodation
	app.CalculatedMiscAllowance = &misc
	app.CalculatedTotalAllowance = &total
	app.AllowanceCalculationDate = &now
}

// TripDays counts the calendar days of a trip, a day trip is one day.
func TripDays(start, end time.Time) int {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// CalculateAllowance applies the allowance schedule of position to a trip of
// days days. Allowances the regulation settles at actual cost are zero.
func CalculateAllowance(r *model.Regulation, position model.RegulationPosition, days int, overseas bool) Allowance {
	nights := int64(days - 1)
	n := int64(days)

	a := Allowance{Overseas: overseas}
	if overseas {
		a.Daily = position.OverseasDailyAllowance * n
		a.Transportation = position.OverseasTransportationAllowance * n
		a.Accommodation = position.OverseasAccommodationAllowance * nights
		a.Preparation = position.OverseasPreparationAllowance
	} else {
		a.Daily = position.DomesticDailyAllowance * n
		a.Transportation = position.DomesticTransportationAllowance * n
		a.Accommodation = position.DomesticAccommodationAllowance * nights
	}

	if r.IsTransportationRealExpense {
		a.Transportation = 0
	}
	if r.IsAccommodationRealExpense {
		a.Accommodation = 0
	}

	return a
}
