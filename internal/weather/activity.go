package weather

import (
	"cmp"
	"math"
	"slices"
)

// Activity is something a visitor can plan around the weather.
type Activity string

const (
	ActivitySkiing             Activity = "skiing"
	ActivitySurfing            Activity = "surfing"
	ActivityOutdoorSightseeing Activity = "outdoor_sightseeing"
	ActivityIndoorSightseeing  Activity = "indoor_sightseeing"
)

// Activities lists every ranked activity.
var Activities = []Activity{
	ActivitySkiing,
	ActivitySurfing,
	ActivityOutdoorSightseeing,
	ActivityIndoorSightseeing,
}

// RankedActivity is an activity's suitability over a forecast window.
// Score is in [0, 100]; Rank starts at 1.
type RankedActivity struct {
	Rank      int      `json:"rank"`
	Activity  Activity `json:"activity"`
	Score     float64  `json:"score"`
	BestDay   string   `json:"best_day,omitempty"`
	BestScore float64  `json:"best_score"`
}

// RankActivities scores every activity for each day, averages the daily
// scores and orders activities by that average, highest first. Ties are
// broken by activity name. No days yields zero scores for every activity.
func RankActivities(days []DailyForecast) []RankedActivity {
	out := make([]RankedActivity, 0, len(Activities))
	for _, a := range Activities {
		ra := RankedActivity{Activity: a}
		total := 0.0
		for i, d := range days {
			s := ScoreDay(a, d)
			total += s
			if i == 0 || s > ra.BestScore {
				ra.BestScore = s
				ra.BestDay = d.Date
			}
		}
		if len(days) > 0 {
			ra.Score = round1(total / float64(len(days)))
		}
		out = append(out, ra)
	}
	slices.SortStableFunc(out, func(a, b RankedActivity) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Activity, b.Activity)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// ScoreDay rates one activity for one day in [0, 100].
func ScoreDay(a Activity, d DailyForecast) float64 {
	var s float64
	switch a {
	case ActivitySkiing:
		s = skiingScore(d)
	case ActivitySurfing:
		s = surfingScore(d)
	case ActivityOutdoorSightseeing:
		s = outdoorScore(d)
	case ActivityIndoorSightseeing:
		s = 40 + 0.6*(100-outdoorScore(d))
	}
	return round1(clamp(s, 0, 100))
}

// Fresh snow and sub-zero highs make for good skiing; rain spoils it.
func skiingScore(d DailyForecast) float64 {
	s := 50 * math.Min(d.SnowfallCM/10, 1)
	switch {
	case d.TempMaxC <= 0:
		s += 30
	case d.TempMaxC < 5:
		s += 30 * (5 - d.TempMaxC) / 5
	}
	switch {
	case d.Condition.Snowy():
		s += 20
	case d.Condition == ConditionRain, d.Condition == ConditionRainShowers, d.Condition == ConditionThunderstorm:
		s -= 20
	}
	return s
}

// Surfing wants steady wind between 15 and 40 km/h and a warm day.
func surfingScore(d DailyForecast) float64 {
	var s float64
	switch w := d.WindSpeedMaxKmh; {
	case w < 15:
		s = 50 * w / 15
	case w <= 40:
		s = 50
	default:
		s = math.Max(0, 50-(w-40)*2.5)
	}
	s += clamp(30*(d.TempMaxC-8)/10, 0, 30)
	switch d.Condition {
	case ConditionClear, ConditionPartlyCloudy:
		s += 20
	case ConditionThunderstorm:
		s -= 40
	}
	return s
}

var outdoorPenalty = map[Condition]float64{
	ConditionClear:        0,
	ConditionPartlyCloudy: 10,
	ConditionOvercast:     25,
	ConditionFog:          25,
	ConditionDrizzle:      40,
	ConditionRain:         60,
	ConditionRainShowers:  60,
	ConditionSnow:         50,
	ConditionSnowShowers:  50,
	ConditionThunderstorm: 80,
	ConditionUnknown:      25,
}

// Outdoor sightseeing is best dry, between 15 and 26 degrees.
func outdoorScore(d DailyForecast) float64 {
	s := 100 - outdoorPenalty[d.Condition]
	switch {
	case d.TempMaxC < 15:
		s -= 3 * (15 - d.TempMaxC)
	case d.TempMaxC > 26:
		s -= 3 * (d.TempMaxC - 26)
	}
	s -= math.Min(5*d.PrecipitationMM, 30)
	return clamp(s, 0, 100)
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
