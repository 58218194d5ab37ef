// internal/core/domain/plans/evaluator.go
package plans

import (
	"time"

	"meteovip-backend/internal/core/domain/forecast"
)

// Plan - правила пригодности, заданные пользователем
type Plan struct {
	ID               int
	Name             string
	MinWindowMinutes int
	Config           Config
}

// Window - будущее окно, в котором все часы проходят план
type Window struct {
	From        string `json:"from"`
	To          string `json:"to"`
	DurationMin int    `json:"durationMin"`
}

// Result - итог оценки плана по почасовому ряду
type Result struct {
	PlanID           int      `json:"planId"`
	Name             string   `json:"name"`
	StatusNow        string   `json:"statusNow"` // good | bad
	ReasonsNow       []string `json:"reasonsNow"`
	MinWindowMinutes int      `json:"minWindowMinutes"`
	Windows          []Window `json:"windows"`
}

const hourStep = 60 * time.Minute

// Evaluate оценивает план: окна строятся той же группировкой
// максимальных интервалов, что и детектор опасностей. Одноточечное
// окно длится 60 минут - каждый отсчёт представляет целый час.
func Evaluate(plan Plan, points []forecast.ObservationPoint) Result {
	minWindow := plan.MinWindowMinutes
	if minWindow <= 0 {
		minWindow = 60
	}

	runs := groupRuns(len(points), func(i int) bool {
		ok, _ := checkPoint(plan.Config, points[i])
		return ok
	})

	windows := make([]Window, 0, len(runs))
	for _, r := range runs {
		from := points[r[0]].Time
		to := points[r[1]].Time
		durationMin := int(to.Sub(from)/time.Minute) + int(hourStep/time.Minute)
		if durationMin < minWindow {
			continue
		}
		windows = append(windows, Window{
			From:        from.UTC().Format(time.RFC3339),
			To:          to.UTC().Format(time.RFC3339),
			DurationMin: durationMin,
		})
	}

	statusNow := "bad"
	reasonsNow := []string{}
	if nearest := nearestPoint(points, clock.Now()); nearest != nil {
		if ok, reason := checkPoint(plan.Config, *nearest); ok {
			statusNow = "good"
		} else {
			reasonsNow = append(reasonsNow, reason)
		}
	} else {
		reasonsNow = append(reasonsNow, "no data")
	}

	return Result{
		PlanID:           plan.ID,
		Name:             plan.Name,
		StatusNow:        statusNow,
		ReasonsNow:       reasonsNow,
		MinWindowMinutes: minWindow,
		Windows:          windows,
	}
}

// nearestPoint выбирает точку, ближайшую к now. При равном расстоянии
// побеждает более ранняя по порядку следования в ряду.
func nearestPoint(points []forecast.ObservationPoint, now time.Time) *forecast.ObservationPoint {
	var best *forecast.ObservationPoint
	var bestDist time.Duration

	for i := range points {
		d := points[i].Time.Sub(now)
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDist {
			best = &points[i]
			bestDist = d
		}
	}
	return best
}

// groupRuns - та же интервальная группировка, что в детекторе
// опасностей (пакеты независимы, дублирование осознанное)
func groupRuns(n int, pred func(i int) bool) [][2]int {
	var runs [][2]int
	start := -1

	for i := 0; i < n; i++ {
		ok := pred(i)
		if ok && start < 0 {
			start = i
		}
		if !ok && start >= 0 {
			runs = append(runs, [2]int{start, i - 1})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, n - 1})
	}
	return runs
}
