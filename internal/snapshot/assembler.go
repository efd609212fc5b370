package snapshot

import (
	"context"
	"fmt"
	"log"
	"time"

	"linky-monitor/internal/energy"
	"linky-monitor/internal/tempo"
)

// CycleState carries the trailing-week arrays between cycles so that
// intermediate cycles within the same calendar day only recompute the
// "today" column. A day rollover forces a full recompute. The state is
// owned by the single aggregation goroutine and needs no locking.
type CycleState struct {
	LastFullRecalcDay string
	HP                []float64
	HC                []float64
	MP                []energy.PowerPeak
	Colors            []tempo.Color
}

func (s *CycleState) complete() bool {
	return len(s.HP) == Days && len(s.HC) == Days &&
		len(s.MP) == Days && len(s.Colors) == Days
}

// Assembler drives the engine components once per cycle and composes the
// published Snapshot. Every query failure degrades to a zero or UNKNOWN
// contribution; the assembled record always has its full shape.
type Assembler struct {
	querier   energy.Querier
	calc      *energy.DeltaCalculator
	calendar  *energy.Calendar
	peaks     *energy.PeakTracker
	detector  *tempo.Detector
	prices    tempo.PriceTable
	table     tempo.SeriesTable
	threshold float64
	version   string
}

type AssemblerConfig struct {
	Querier   energy.Querier
	Calc      *energy.DeltaCalculator
	Calendar  *energy.Calendar
	Peaks     *energy.PeakTracker
	Detector  *tempo.Detector
	Prices    tempo.PriceTable
	Table     tempo.SeriesTable
	Threshold float64
	Version   string
}

func NewAssembler(cfg AssemblerConfig) *Assembler {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &Assembler{
		querier:   cfg.Querier,
		calc:      cfg.Calc,
		calendar:  cfg.Calendar,
		peaks:     cfg.Peaks,
		detector:  cfg.Detector,
		prices:    cfg.Prices,
		table:     cfg.Table,
		threshold: cfg.Threshold,
		version:   version,
	}
}

// Build assembles a full snapshot, refreshing state in place.
func (a *Assembler) Build(ctx context.Context, state *CycleState) *Snapshot {
	now := a.calendar.Now()
	today := now.Format(dateLayout)

	if state.LastFullRecalcDay != today || !state.complete() {
		a.recomputeWeek(ctx, state)
		state.LastFullRecalcDay = today
	} else {
		a.recomputeToday(ctx, state)
	}

	dates := make([]string, Days)
	daily := make([]float64, Days)
	mpValues := make([]float64, Days)
	mpTimes := make([]string, Days)
	mpOver := make([]bool, Days)
	colors := make([]string, Days)
	var sumHP, sumHC float64

	for i := 0; i < Days; i++ {
		dates[i] = now.AddDate(0, 0, -i).Format(dateLayout)
		daily[i] = round2(state.HP[i] + state.HC[i])
		mpValues[i] = state.MP[i].Value
		mpTimes[i] = state.MP[i].At.Format(timeLayout)
		mpOver[i] = state.MP[i].Value > a.threshold
		colors[i] = state.Colors[i].String()
		sumHP += state.HP[i]
		sumHC += state.HC[i]
	}

	costs := a.prices.Costs(state.HP, state.HC, state.Colors)

	all := a.table.AllSeries()
	currentWeek := a.calc.Delta(ctx, all, a.calendar.ISOWeek(energy.Current))
	lastWeek := a.calc.Delta(ctx, all, a.calendar.ISOWeek(energy.Previous))

	currentMonthWindow := a.calendar.Month(energy.Current)
	lastMonthWindow := a.calendar.Month(energy.Previous)
	currentMonth := a.calc.Delta(ctx, all, currentMonthWindow)
	currentMonthLastYear := a.calc.Delta(ctx, all, a.calendar.YearsBack(currentMonthWindow, 1))
	lastMonth := a.calc.Delta(ctx, all, lastMonthWindow)
	lastMonthLastYear := a.calc.Delta(ctx, all, a.calendar.YearsBack(lastMonthWindow, 1))

	currentYear := a.calc.Delta(ctx, all, a.calendar.Year(0))
	currentYearLastYear := a.calc.Delta(ctx, all, a.calendar.Year(1))

	peakPercent := 0.0
	if sumHP+sumHC > 0 {
		peakPercent = round2(sumHP / (sumHP + sumHC) * 100)
	}

	stamp := now.Format(time.RFC3339)

	return &Snapshot{
		ServiceEnedis:     "myElectricalData",
		TypeCompteur:      "consommation",
		UnitOfMeasurement: "kWh",

		CurrentYear:         currentYear,
		CurrentYearLastYear: currentYearLastYear,
		YearlyEvolution:     Evolution(currentYear, currentYearLastYear),

		LastMonth:             lastMonth,
		LastMonthLastYear:     lastMonthLastYear,
		MonthlyEvolution:      Evolution(lastMonth, lastMonthLastYear),
		CurrentMonth:          currentMonth,
		CurrentMonthLastYear:  currentMonthLastYear,
		CurrentMonthEvolution: Evolution(currentMonth, currentMonthLastYear),

		CurrentWeek:          currentWeek,
		LastWeek:             lastWeek,
		CurrentWeekEvolution: Evolution(currentWeek, lastWeek),

		Yesterday:          daily[1],
		Day2:               daily[2],
		YesterdayEvolution: Evolution(daily[1], daily[2]),
		YesterdayHP:        state.HP[1],
		YesterdayHC:        state.HC[1],

		Daily:         daily,
		DailyweekDays: dates,
		DailyweekHP:   append([]float64(nil), state.HP...),
		DailyweekHC:   append([]float64(nil), state.HC...),

		DailyweekCost:   costs.Total,
		DailyweekCostHP: costs.Peak,
		DailyweekCostHC: costs.OffPeak,
		DailyCost:       costs.Total[0],

		DailyweekMP:         mpValues,
		DailyweekMPTime:     mpTimes,
		DailyweekMPOver:     mpOver,
		SubscribedPowerKVA:  a.threshold,
		SubscribedPowerUnit: "kVA",

		DailyweekTempo: colors,

		PeakOffpeakPercent: peakPercent,

		ErrorLastCall: "",
		VersionGit:    a.version,
		LastUpdate:    stamp,
		TimeLastCall:  stamp,
	}
}

func (a *Assembler) recomputeWeek(ctx context.Context, state *CycleState) {
	hp := make([]float64, Days)
	hc := make([]float64, Days)
	for i := 0; i < Days; i++ {
		w := a.calendar.Day(i)
		hp[i] = a.calc.Delta(ctx, a.table.PeakSeries(), w)
		hc[i] = a.calc.Delta(ctx, a.table.OffPeakSeries(), w)
	}
	state.HP = hp
	state.HC = hc
	state.MP = a.peaks.DailyPeaks(ctx, Days)
	state.Colors = a.detector.ColorsForLastDays(ctx, Days)
}

func (a *Assembler) recomputeToday(ctx context.Context, state *CycleState) {
	w := a.calendar.Today()
	state.HP[0] = a.calc.Delta(ctx, a.table.PeakSeries(), w)
	state.HC[0] = a.calc.Delta(ctx, a.table.OffPeakSeries(), w)
	state.MP[0] = a.peaks.PeakForDay(ctx, 0)
	state.Colors[0] = a.detector.ColorForDay(ctx, 0)
}

// ConsumptionVeille computes yesterday's total consumption through instant
// first/last_over_time queries over the closed day, falling back to the
// range-based delta when the backend returns no instant data at all.
func (a *Assembler) ConsumptionVeille(ctx context.Context) float64 {
	var total float64
	found := false

	for _, series := range a.table.AllSeries() {
		first, okFirst, err := a.querier.Query(ctx, fmt.Sprintf("first_over_time(%s[1d] offset 1d)", series))
		if err != nil {
			log.Printf("Veille first_over_time failed for %s: %v", series, err)
			continue
		}
		last, okLast, err := a.querier.Query(ctx, fmt.Sprintf("last_over_time(%s[1d] offset 1d)", series))
		if err != nil {
			log.Printf("Veille last_over_time failed for %s: %v", series, err)
			continue
		}
		if !okFirst || !okLast {
			continue
		}

		diff := last - first
		if diff < 0 {
			diff = 0
		}
		total += diff
		found = true
	}

	if !found {
		return a.calc.Delta(ctx, a.table.AllSeries(), a.calendar.Day(1))
	}
	return round2(total)
}
