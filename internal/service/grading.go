package service

// GradeBand maps a minimum final mark (out of 100) to a letter grade.
type GradeBand struct {
	Min    float64
	Letter string
}

// GradingPolicy converts percentages to GPA values and final marks to letter
// grades. It is injected into the aggregator so institutions can swap the
// mapping without touching the scoring engine.
type GradingPolicy struct {
	GPADivisor float64
	GPACap     float64
	Bands      []GradeBand
}

// DefaultGradingPolicy returns the linear percentage/20 GPA mapping capped at
// 4.0 and the standard letter bands.
func DefaultGradingPolicy() GradingPolicy {
	return GradingPolicy{
		GPADivisor: 20,
		GPACap:     4.0,
		Bands: []GradeBand{
			{Min: 90, Letter: "A+"},
			{Min: 80, Letter: "A"},
			{Min: 70, Letter: "B+"},
			{Min: 60, Letter: "B"},
			{Min: 50, Letter: "C+"},
			{Min: 40, Letter: "C"},
			{Min: 0, Letter: "F"},
		},
	}
}

// GPA maps a semester percentage onto the grade-point scale.
func (p GradingPolicy) GPA(percentage float64) float64 {
	divisor := p.GPADivisor
	if divisor <= 0 {
		divisor = 20
	}
	gpa := percentage / divisor
	if p.GPACap > 0 && gpa > p.GPACap {
		gpa = p.GPACap
	}
	if gpa < 0 {
		gpa = 0
	}
	return gpa
}

// Letter maps a subject final mark (out of 100) to its letter grade.
func (p GradingPolicy) Letter(finalMark float64) string {
	for _, band := range p.Bands {
		if finalMark >= band.Min {
			return band.Letter
		}
	}
	if len(p.Bands) > 0 {
		return p.Bands[len(p.Bands)-1].Letter
	}
	return ""
}
