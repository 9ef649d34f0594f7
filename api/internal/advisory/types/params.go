package types

import "fmt"

// Params are the structured extras a use case interpolates into its prompt.
type Params struct {
	Crop   string   `json:"crop,omitempty"`
	Stage  string   `json:"stage,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Report any      `json:"report,omitempty"`
	// Date is "YYYY-MM-DD"; the orchestrator fills it when empty.
	Date string `json:"date,omitempty"`
}

func (p Params) HasLocation() bool { return p.Lat != nil && p.Lon != nil }

// Validate checks the params a use case cannot do without.
func (p Params) Validate(u UseCase) error {
	switch u {
	case FertilizerPlan:
		if p.Crop == "" || p.Stage == "" {
			return fmt.Errorf("crop and stage are required")
		}
	case WeatherAdvisory, WeatherForecast, MarketPrices:
		if !p.HasLocation() {
			return fmt.Errorf("lat and lon are required")
		}
		if *p.Lat < -90 || *p.Lat > 90 || *p.Lon < -180 || *p.Lon > 180 {
			return fmt.Errorf("lat/lon out of range")
		}
	case ProjectPlan:
		if p.Report == nil {
			return fmt.Errorf("report is required")
		}
	}
	return nil
}

func Float(v float64) *float64 { return &v }
