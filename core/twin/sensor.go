package twin

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sensor wraps a scalar measurement with simulated readout noise. A sensor
// is owned exclusively by its subsystem and mutated only through Update.
type Sensor struct {
	ID          string
	Type        string
	Location    string
	Unit        string
	Value       float64
	Timestamp   time.Time
	Status      string
	Calibration float64

	src rand.Source
	now func() time.Time
}

// NewSensor creates an active sensor with calibration factor 1. The random
// source drives readout noise only; passing the same seeded source yields a
// reproducible noise sequence.
func NewSensor(id, typ, location, unit string, src rand.Source, now func() time.Time) *Sensor {
	if now == nil {
		now = time.Now
	}
	return &Sensor{
		ID:          id,
		Type:        typ,
		Location:    location,
		Unit:        unit,
		Status:      "active",
		Calibration: 1.0,
		src:         src,
		now:         now,
	}
}

// Read returns the calibrated value plus zero-mean Gaussian noise with a
// standard deviation of 2% of the value's magnitude. Read never mutates the
// sensor. The noise is an observation artifact: physics code reads subsystem
// state directly and must never consume Read.
func (s *Sensor) Read() float64 {
	noise := distuv.Normal{Mu: 0, Sigma: 0.02 * math.Abs(s.Value), Src: s.src}
	return s.Value*s.Calibration + noise.Rand()
}

// Update overwrites the value and refreshes the timestamp. The timestamp
// changes only here.
func (s *Sensor) Update(v float64) {
	s.Value = v
	s.Timestamp = s.now()
}
