// internal/core/domain/plans/clock.go
package plans

import "github.com/jonboulle/clockwork"

// clock - источник времени для расчёта statusNow.
// Тесты подменяют его фейком через SetClock.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock подменяет источник времени. nil возвращает реальные часы.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
