package sequence

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/marquee/internal/bank"
)

// SpeedFPS is the firmware frame rate for speeds 1..8.
var SpeedFPS = [bank.MaxSpeed]physic.Frequency{
	1200 * physic.MilliHertz,
	1300 * physic.MilliHertz,
	2 * physic.Hertz,
	2400 * physic.MilliHertz,
	2800 * physic.MilliHertz,
	4500 * physic.MilliHertz,
	7500 * physic.MilliHertz,
	15 * physic.Hertz,
}

// Interval is the time between mode steps at the given speed, rounded to the
// millisecond. Out of range speeds are clamped.
func Interval(speed int) time.Duration {
	return SpeedFPS[bank.ClampSpeed(speed)-1].Period().Round(time.Millisecond)
}
