package types

// Result is what a successful orchestrator run hands back to the caller.
// Value is a JSON-like tree: map[string]any, []any, string, float64, bool or nil.
type Result struct {
	UseCase  UseCase `json:"use_case"`
	Language string  `json:"language"`
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Attempts int     `json:"attempts"`
	Value    any     `json:"result"`
}
