// Package intelligence contiene las heuristicas de habitos: rachas,
// probabilidad de exito, riesgo de fallo y agregacion del dashboard.
// Todas las funciones son puras; reciben los datos ya leidos y la hora actual.
package intelligence

import "time"

// Clock abstrae la hora actual para poder fijarla en tests.
type Clock interface {
	Now() time.Time
}

// SystemClock devuelve la hora del sistema en UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock devuelve siempre el mismo instante.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// StartOfDay trunca t al inicio de su dia calendario UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween cuenta periodos completos de 24h entre then y now (nunca negativo).
func daysBetween(now, then time.Time) int {
	d := now.Sub(then)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// daysSinceCreation incluye el dia de creacion, minimo 1.
func daysSinceCreation(now, createdAt time.Time) int {
	return max(daysBetween(now, createdAt)+1, 1)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// normalizeDifficulty lleva la dificultad al rango 1-5 en vez de fallar.
func normalizeDifficulty(d int) int {
	return max(1, min(d, 5))
}
