// Package prompt renders the model instruction for each use case.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"farm-advisor/api/internal/advisory/types"
)

type template struct {
	role   string
	task   func(p types.Params) string
	schema func(p types.Params) string
	// inputHeading labels the text input block; empty means "Input (JSON):".
	inputHeading string
}

func fixed(s string) func(types.Params) string { return func(types.Params) string { return s } }

var templates = map[types.UseCase]template{
	types.Diagnosis: {
		role: "You are an experienced agronomist and plant pathologist advising a smallholder farmer.",
		task: fixed("Examine the attached crop photograph or the lab report below. " +
			"Identify the crop, any disease, pest or nutrient deficiency, how confident you are, " +
			"the visible symptoms and likely causes. Recommend organic and chemical treatments with " +
			"dosages and intervals, preventive measures and how urgently the farmer must act."),
		schema:       fixed(DiagnosisSchema),
		inputHeading: "Report text:",
	},
	types.FertilizerPlan: {
		role: "You are a soil scientist preparing fertilizer advice for a farmer.",
		task: func(p types.Params) string {
			return fmt.Sprintf("Prepare a fertilizer plan for %s at the %s growth stage. "+
				"List recommended fertilizers with dosage per acre, application method and timing, "+
				"micronutrient recommendations, organic amendments and safety and environmental tips.",
				p.Crop, p.Stage)
		},
		schema: fixed(FertilizerPlanSchema),
	},
	types.WeatherAdvisory: {
		role: "You are an agro-meteorologist advising a farmer about the coming week.",
		task: func(p types.Params) string {
			s := fmt.Sprintf("For the farm at latitude %s, longitude %s, summarise the expected weather "+
				"and give practical advice on irrigation, spraying windows and weather risks.",
				coord(p.Lat), coord(p.Lon))
			if p.Crop != "" {
				s += fmt.Sprintf(" The farmer grows %s.", p.Crop)
			}
			return s
		},
		schema: fixed(WeatherAdvisorySchema),
	},
	types.ProjectPlan: {
		role: "You are a farm planning expert. The farmer's soil and field report is given below.",
		task: fixed("Create a complete crop plan: pick a suitable crop and variety, estimate the total " +
			"duration and a budget broken down by activity, and describe every stage from land " +
			"preparation to harvest with its duration, tasks and fertilizers."),
		schema: fixed(ProjectPlanSchema),
	},
	types.WeatherForecast: {
		role: "You are a weather forecasting assistant for farmers.",
		task: func(p types.Params) string {
			return fmt.Sprintf("Today is %s. Give a 5-day weather forecast starting today for latitude %s, "+
				"longitude %s. Every day must include date, day, high, low, condition and rainPercent. "+
				"Temperatures are in degrees Celsius.",
				p.Date, coord(p.Lat), coord(p.Lon))
		},
		schema: fixed(WeatherForecastSchema),
	},
	types.MarketPrices: {
		role: "You are an agricultural market analyst.",
		task: func(p types.Params) string {
			s := fmt.Sprintf("Today is %s. Report current wholesale crop prices at the markets nearest "+
				"to latitude %s, longitude %s.", p.Date, coord(p.Lat), coord(p.Lon))
			if p.Crop != "" {
				s += fmt.Sprintf(" Report only the price of %s as a single object.", p.Crop)
			} else {
				s += " Cover the main crops traded there."
			}
			return s
		},
		schema: func(p types.Params) string {
			if p.Crop != "" {
				return MarketPriceSchema
			}
			return MarketPricesSchema
		},
	},
}

// Build renders the prompt for u. It is pure: the same arguments always
// produce the same envelope.
func Build(u types.UseCase, in types.ModelInput, displayName string, p types.Params) (types.PromptEnvelope, error) {
	t, ok := templates[u]
	if !ok {
		return types.PromptEnvelope{}, types.NewError(types.KindInvalidRequest, "unknown use case %q", u)
	}
	if err := in.Validate(); err != nil {
		return types.PromptEnvelope{}, types.Wrap(types.KindInvalidRequest, err, "invalid model input")
	}
	if in.IsImage() && u != types.Diagnosis {
		return types.PromptEnvelope{}, types.NewError(types.KindInvalidRequest, "%s does not take an image", u)
	}

	var b strings.Builder
	b.WriteString(t.role)
	b.WriteString("\n\n")
	b.WriteString(t.task(p))
	b.WriteString("\n\nReturn the result in the following JSON structure:\n")
	b.WriteString(t.schema(p))
	b.WriteString("\n")

	var image *types.ModelInput
	if in.IsImage() {
		image = &in
		b.WriteString("\nThe photograph is attached.\n")
	} else if strings.TrimSpace(in.Content) != "" {
		heading := t.inputHeading
		if heading == "" {
			heading = "Input (JSON):"
		}
		b.WriteString("\n")
		b.WriteString(heading)
		b.WriteString("\n")
		b.WriteString(in.Content)
		b.WriteString("\n")
	}

	b.WriteString("\nWrite every text value in ")
	b.WriteString(displayName)
	b.WriteString(" only. Respond only with JSON matching the structure above, without any explanation.")

	return types.NewEnvelope(u, b.String(), image), nil
}

// ExpectedKeys names the top-level keys a well-formed answer carries.
// Nil means the answer is an array or has no fixed keys.
func ExpectedKeys(u types.UseCase) []string {
	switch u {
	case types.Diagnosis:
		return []string{"diagnosis"}
	case types.FertilizerPlan:
		return []string{"fertilizerPlan"}
	case types.WeatherAdvisory:
		return []string{"advisory"}
	case types.ProjectPlan:
		return []string{"cropPlan"}
	}
	return nil
}

func coord(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
