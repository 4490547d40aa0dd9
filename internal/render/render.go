// Package render produces the plain-text travel expense regulation document.
package render

import (
	"fmt"
	"strings"
	"time"
)

// ReiwaEpochYear is the gregorian year preceding Reiwa 1 (2019).
const ReiwaEpochYear = 2018

const realExpense = "実費"

type Company struct {
	Name           string
	Address        string
	Representative string
}

// Position is the allowance schedule of one position, amounts in yen.
type Position struct {
	Name                   string
	DomesticDaily          int64
	DomesticAccommodation  int64
	DomesticTransportation int64
	OverseasDaily          int64
	OverseasAccommodation  int64
	OverseasPreparation    int64
	OverseasTransportation int64
}

type Document struct {
	Company                   Company
	DistanceThreshold         int
	TransportationRealExpense bool
	AccommodationRealExpense  bool
	Positions                 []Position
	ImplementationDate        time.Time
}

// EraYear converts a gregorian year into a Reiwa year.
func EraYear(t time.Time) int {
	return t.Year() - ReiwaEpochYear
}

// FileName is the download name of a rendered regulation.
func FileName(companyName string, revision int) string {
	return fmt.Sprintf("出張旅費規程_%s_v%d.txt", companyName, revision)
}

func yen(amount int64) string {
	return fmt.Sprintf("%d円", amount)
}

func orRealExpense(real bool, amount int64) string {
	if real {
		return realExpense
	}
	return yen(amount)
}

func domesticTable(doc Document) string {
	rows := make([]string, 0, len(doc.Positions))
	for _, p := range doc.Positions {
		rows = append(rows, strings.Join([]string{
			p.Name,
			yen(p.DomesticDaily),
			orRealExpense(doc.AccommodationRealExpense, p.DomesticAccommodation),
			orRealExpense(doc.TransportationRealExpense, p.DomesticTransportation),
		}, "\t"))
	}
	return strings.Join(rows, "\n")
}

func overseasTable(doc Document) string {
	rows := make([]string, 0, len(doc.Positions))
	for _, p := range doc.Positions {
		rows = append(rows, strings.Join([]string{
			p.Name,
			yen(p.OverseasDaily),
			orRealExpense(doc.AccommodationRealExpense, p.OverseasAccommodation),
			yen(p.OverseasPreparation),
			orRealExpense(doc.TransportationRealExpense, p.OverseasTransportation),
		}, "\t"))
	}
	return strings.Join(rows, "\n")
}

// Regulation renders the eleven article regulation document. The output only
// depends on doc.
func Regulation(doc Document) string {
	date := doc.ImplementationDate

	var b strings.Builder
	b.WriteString("出張旅費規程\n\n")

	b.WriteString("（目的）\n")
	b.WriteString("第１条　この規程は、役員または従業員が社命により、出張する場合の、旅費について定めたものである。\n\n")

	b.WriteString("（適用範囲）\n")
	b.WriteString("第２条　この規程は、役員及び全ての従業員について適用する。\n\n")

	b.WriteString("（旅費の種類）\n")
	b.WriteString("第３条　この規程に基づく旅費とは、出張日当、交通費、宿泊料、支度料の四種とし、その支給基準は第７条規定のとおりとする。ただし、交通費及び宿泊料についてはそれぞれ実費精算とすることができる。\n\n")

	b.WriteString("（出張の定義）\n")
	fmt.Fprintf(&b, "第４条　出張とは、従業員が自宅または通常の勤務地を起点として、片道%dｋｍ以上の目的地に移動し、職務を遂行するものをいう。\n\n", doc.DistanceThreshold)

	b.WriteString("（出張の承認）\n")
	b.WriteString("第５条　従業員が出張を行う場合は、事前に所属長の承認を得なければならない。ただし、緊急の場合は事後承認とすることができる。\n\n")

	b.WriteString("（出張の区分）\n")
	b.WriteString("第６条　出張は、以下のとおり区分する。\n")
	b.WriteString("　　　　１　国内出張\n")
	b.WriteString("　　　　　国内出張とは、日本国内の用務先に赴く出張であり、所属長（または代表者）が認めたものとする。当日中に帰着することが可能なものは、日帰り出張として出張日当と交通費日当（実費精算可）、宿泊を伴う出張は、出張日当と交通費日当（実費精算可）、宿泊日当（実費精算可）を第７条に定める旅費を支給する。日帰り出張は1日、1泊2日は2日と日数を計算する。\n")
	b.WriteString("　　　　２　海外出張\n")
	b.WriteString("　　　　　海外出張とは、日本国外の地域への宿泊を伴う出張であり、所属長（または代表者）が認めたものとする。出張日当と交通費日当（実費精算可）、宿泊日当（実費精算可）に加えて、支度料を第７条に定める旅費を支給する。\n\n")

	b.WriteString("（旅費一覧）\n")
	b.WriteString("第７条　旅費は、以下のとおり役職に応じて支給する。（円）\n\n")
	b.WriteString("【国内出張】\n")
	b.WriteString("役職名\t出張日当\t宿泊料\t交通費\n")
	b.WriteString(domesticTable(doc))
	b.WriteString("\n\n")
	b.WriteString("【海外出張】\n")
	b.WriteString("役職名\t出張日当\t宿泊料\t支度料\t交通費\n")
	b.WriteString(overseasTable(doc))
	b.WriteString("\n\n")

	b.WriteString("（交通機関）\n")
	b.WriteString("第８条　利用する交通手段は、原則として、鉄道、船舶、飛行機、バスとする。\n")
	b.WriteString("　　　　２　前項に関わらず、会社が必要と認めた場合は、タクシーまたは社有の自動車を利用できるものとする。\n\n")

	b.WriteString("（旅費の支給方法）\n")
	b.WriteString("第９条　旅費は、原則として出張終了後に精算により支給する。ただし、必要に応じて概算払いを行うことができる。\n\n")

	b.WriteString("（規程の改廃）\n")
	b.WriteString("第１０条　本規程の改廃は、取締役会の決議により行う。\n\n")

	b.WriteString("（附則）\n")
	fmt.Fprintf(&b, "第１１条　本規程は、令和%d年%d月%d日より実施する。\n\n", EraYear(date), int(date.Month()), date.Day())

	b.WriteString(doc.Company.Name)
	b.WriteString("\n")
	b.WriteString(doc.Company.Representative)

	return b.String()
}
