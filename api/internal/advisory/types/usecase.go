package types

import (
	"fmt"
	"strings"
)

type UseCase string

const (
	Diagnosis       UseCase = "diagnosis"
	FertilizerPlan  UseCase = "fertilizer_plan"
	WeatherAdvisory UseCase = "weather_advisory"
	ProjectPlan     UseCase = "project_plan"
	WeatherForecast UseCase = "weather_forecast"
	MarketPrices    UseCase = "market_prices"
)

var useCases = []UseCase{Diagnosis, FertilizerPlan, WeatherAdvisory, ProjectPlan, WeatherForecast, MarketPrices}

// UseCases lists every supported use case in a stable order.
func UseCases() []UseCase {
	return append([]UseCase(nil), useCases...)
}

func (u UseCase) String() string { return string(u) }

func (u UseCase) Valid() bool {
	for _, c := range useCases {
		if c == u {
			return true
		}
	}
	return false
}

// TakesArtifact reports whether the use case consumes an uploaded file
// rather than structured params.
func (u UseCase) TakesArtifact() bool { return u == Diagnosis }

// ParseUseCase accepts wire names, dashes and case being irrelevant.
func ParseUseCase(s string) (UseCase, error) {
	u := UseCase(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !u.Valid() {
		return "", fmt.Errorf("unknown use case %q", s)
	}
	return u, nil
}
