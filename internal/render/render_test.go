package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleDocument() Document {
	return Document{
		Company: Company{
			Name:           "Acme K.K.",
			Address:        "東京都千代田区1-1",
			Representative: "代表取締役 山田 一郎",
		},
		DistanceThreshold: 50,
		Positions: []Position{
			{
				Name:                   "部長",
				DomesticDaily:          5000,
				DomesticAccommodation:  12000,
				DomesticTransportation: 3000,
				OverseasDaily:          8000,
				OverseasAccommodation:  20000,
				OverseasPreparation:    10000,
				OverseasTransportation: 5000,
			},
			{
				Name:                   "一般社員",
				DomesticDaily:          3000,
				DomesticAccommodation:  9000,
				DomesticTransportation: 2000,
				OverseasDaily:          5000,
				OverseasAccommodation:  15000,
				OverseasPreparation:    5000,
				OverseasTransportation: 3000,
			},
		},
		ImplementationDate: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRegulation_Deterministic(t *testing.T) {
	doc := sampleDocument()
	assert.Equal(t, Regulation(doc), Regulation(doc))
}

func TestRegulation_Tables(t *testing.T) {
	tests := []struct {
		name          string
		accommodation bool
		transport     bool
		domestic      string
		overseas      string
	}{
		{
			name:     "amounts",
			domestic: "部長\t5000円\t12000円\t3000円",
			overseas: "部長\t8000円\t20000円\t10000円\t5000円",
		},
		{
			name:          "accommodation at cost",
			accommodation: true,
			domestic:      "部長\t5000円\t実費\t3000円",
			overseas:      "部長\t8000円\t実費\t10000円\t5000円",
		},
		{
			name:      "transportation at cost",
			transport: true,
			domestic:  "部長\t5000円\t12000円\t実費",
			overseas:  "部長\t8000円\t20000円\t10000円\t実費",
		},
		{
			name:          "both at cost",
			accommodation: true,
			transport:     true,
			domestic:      "部長\t5000円\t実費\t実費",
			overseas:      "部長\t8000円\t実費\t10000円\t実費",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument()
			doc.AccommodationRealExpense = tt.accommodation
			doc.TransportationRealExpense = tt.transport

			text := Regulation(doc)
			assert.Contains(t, text, "【国内出張】\n役職名\t出張日当\t宿泊料\t交通費\n"+tt.domestic+"\n")
			assert.Contains(t, text, "【海外出張】\n役職名\t出張日当\t宿泊料\t支度料\t交通費\n"+tt.overseas+"\n")
		})
	}
}

func TestRegulation_AccommodationRealExpenseEveryRow(t *testing.T) {
	doc := sampleDocument()
	doc.AccommodationRealExpense = true

	text := Regulation(doc)
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "部長\t") || strings.HasPrefix(line, "一般社員\t") {
			assert.Equal(t, "実費", strings.Split(line, "\t")[2])
		}
	}
	assert.NotContains(t, text, "12000円")
	assert.NotContains(t, text, "9000円")
}

func TestRegulation_Articles(t *testing.T) {
	text := Regulation(sampleDocument())

	assert.True(t, strings.HasPrefix(text, "出張旅費規程\n\n（目的）\n第１条"))
	assert.Contains(t, text, "片道50ｋｍ以上の目的地")
	assert.Contains(t, text, "第１１条　本規程は、令和6年4月1日より実施する。")
	assert.True(t, strings.HasSuffix(text, "\n\nAcme K.K.\n代表取締役 山田 一郎"))
}

func TestEraYear(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2019, 1},
		{2024, 6},
		{2030, 12},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EraYear(time.Date(tt.year, time.May, 1, 0, 0, 0, 0, time.UTC)))
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "出張旅費規程_Acme K.K._v2.txt", FileName("Acme K.K.", 2))
}
