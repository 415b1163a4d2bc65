package logic

// Display trend deadbands. Changes smaller than these read as FLAT so
// the arrow does not jitter between samples.
const (
	CO2TrendDeadband      = 20.0 // ppm
	TempTrendDeadband     = 0.2  // °C
	HumidityTrendDeadband = 1.0  // %RH
)

// TrendOf compares the current value against the previous one with a
// deadband.
func TrendOf(current, previous, deadband float64) Trend {
	delta := current - previous
	switch {
	case delta > deadband:
		return TrendUp
	case delta < -deadband:
		return TrendDown
	default:
		return TrendFlat
	}
}
