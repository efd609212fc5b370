// Package snapshot assembles the denormalized meter record published on
// every cycle. The field names follow the myElectricalData payload consumed
// by Home Assistant dashboards.
package snapshot

import "math"

const (
	// Days is the length of every trailing per-day array, today included.
	Days = 7

	timeLayout = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
)

// Snapshot is one immutable published record. Index 0 of every per-day
// array is today (in progress), index i is today minus i days.
type Snapshot struct {
	ServiceEnedis     string `json:"serviceEnedis"`
	TypeCompteur      string `json:"typeCompteur"`
	UnitOfMeasurement string `json:"unit_of_measurement"`

	CurrentYear         float64 `json:"current_year"`
	CurrentYearLastYear float64 `json:"current_year_last_year"`
	YearlyEvolution     float64 `json:"yearly_evolution"`

	LastMonth             float64 `json:"last_month"`
	LastMonthLastYear     float64 `json:"last_month_last_year"`
	MonthlyEvolution      float64 `json:"monthly_evolution"`
	CurrentMonth          float64 `json:"current_month"`
	CurrentMonthLastYear  float64 `json:"current_month_last_year"`
	CurrentMonthEvolution float64 `json:"current_month_evolution"`

	CurrentWeek          float64 `json:"current_week"`
	LastWeek             float64 `json:"last_week"`
	CurrentWeekEvolution float64 `json:"current_week_evolution"`

	Yesterday          float64 `json:"yesterday"`
	Day2               float64 `json:"day_2"`
	YesterdayEvolution float64 `json:"yesterday_evolution"`
	YesterdayHP        float64 `json:"yesterday_HP"`
	YesterdayHC        float64 `json:"yesterday_HC"`

	Daily         []float64 `json:"daily"`
	DailyweekDays []string  `json:"dailyweek"`
	DailyweekHP   []float64 `json:"dailyweek_HP"`
	DailyweekHC   []float64 `json:"dailyweek_HC"`

	DailyweekCost   []float64 `json:"dailyweek_cost"`
	DailyweekCostHP []float64 `json:"dailyweek_costHP"`
	DailyweekCostHC []float64 `json:"dailyweek_costHC"`
	DailyCost       float64   `json:"daily_cost"`

	DailyweekMP         []float64 `json:"dailyweek_MP"`
	DailyweekMPTime     []string  `json:"dailyweek_MP_time"`
	DailyweekMPOver     []bool    `json:"dailyweek_MP_over"`
	SubscribedPowerKVA  float64   `json:"dailyweek_MP_over_threshold"`
	SubscribedPowerUnit string    `json:"dailyweek_MP_over_unit"`

	DailyweekTempo []string `json:"dailyweek_Tempo"`

	PeakOffpeakPercent float64 `json:"peak_offpeak_percent"`

	ErrorLastCall string `json:"errorLastCall"`
	VersionGit    string `json:"versionGit"`
	LastUpdate    string `json:"lastUpdate"`
	TimeLastCall  string `json:"timeLastCall"`
}

// Evolution is the percent change from previous to current. A zero
// previous value floors the evolution at 0 instead of dividing by zero.
func Evolution(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return round2((current - previous) / previous * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
