package scenario

import "math"

// Urban models stop-and-go traffic over a 60 s cycle for 10 minutes:
// accelerate, cruise, decelerate, stop.
func Urban() Scenario {
	return Scenario{
		Name:      "urban",
		DurationS: 600,
		Inputs: func(t float64) ControlInput {
			c := math.Mod(t, 60)
			switch {
			case c < 20:
				return ControlInput{ThrottlePct: math.Min(40+c*2, 60)}
			case c < 30:
				return ControlInput{ThrottlePct: 30}
			case c < 40:
				return ControlInput{BrakePct: 20 + (c-30)*3}
			default:
				return ControlInput{BrakePct: 50}
			}
		},
	}
}

// Highway ramps up for a minute, cruises at high speed with minor throttle
// variation, and slows down over the final two minutes of its 30 minutes.
func Highway() Scenario {
	const durationS = 1800
	return Scenario{
		Name:      "highway",
		DurationS: durationS,
		Inputs: func(t float64) ControlInput {
			switch {
			case t < 60:
				return ControlInput{ThrottlePct: math.Min(70+t, 100)}
			case t > durationS-120:
				return ControlInput{ThrottlePct: 30, BrakePct: 20}
			default:
				return ControlInput{ThrottlePct: 45 + math.Sin(t*0.1)*5}
			}
		},
	}
}

// Aggressive alternates hard acceleration, coasting and hard braking over a
// 30 s cycle for 5 minutes.
func Aggressive() Scenario {
	return Scenario{
		Name:      "aggressive",
		DurationS: 300,
		Inputs: func(t float64) ControlInput {
			c := math.Mod(t, 30)
			switch {
			case c < 10:
				return ControlInput{ThrottlePct: 100}
			case c < 15:
				return ControlInput{}
			case c < 20:
				return ControlInput{BrakePct: 80}
			default:
				return ControlInput{BrakePct: 50}
			}
		},
	}
}

// Eco drives smoothly over a 90 s cycle for 15 minutes: gentle acceleration,
// cruise, gentle deceleration.
func Eco() Scenario {
	return Scenario{
		Name:      "eco",
		DurationS: 900,
		Inputs: func(t float64) ControlInput {
			c := math.Mod(t, 90)
			switch {
			case c < 30:
				return ControlInput{ThrottlePct: math.Min(20+c*0.8, 40)}
			case c < 60:
				return ControlInput{ThrottlePct: 35}
			default:
				return ControlInput{ThrottlePct: math.Max(35-(c-60)*1.2, 0), BrakePct: 10}
			}
		},
	}
}
