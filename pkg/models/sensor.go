package models

// Sensor poll states reported by the backend.
const (
	SensorStatusPending  = "pending"
	SensorStatusComplete = "complete"
)

// SensorReading is one soil measurement taken by the field node.
type SensorReading struct {
	N  float64 `json:"N"`
	P  float64 `json:"P"`
	K  float64 `json:"K"`
	PH float64 `json:"ph"`
}

// SensorStatus is the poll response for the latest measurement.
type SensorStatus struct {
	Status string         `json:"status"`
	Data   *SensorReading `json:"data,omitempty"`
}

// Complete reports whether the measurement has arrived.
func (s SensorStatus) Complete() bool {
	return s.Status == SensorStatusComplete && s.Data != nil
}

// FormValues returns the reading as crop recommendation form values.
func (r SensorReading) FormValues() map[string]string {
	return map[string]string{
		FieldNitrogen:   formatFloat(r.N),
		FieldPhosphorus: formatFloat(r.P),
		FieldPotassium:  formatFloat(r.K),
		FieldPH:         formatFloat(r.PH),
	}
}

// Ack is the generic acknowledgement returned by trigger endpoints.
type Ack struct {
	Message string `json:"message"`
}
