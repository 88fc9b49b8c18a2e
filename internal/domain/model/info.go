package model

// Info describes the running evaluator for health reporting.
type Info struct {
	Started            bool   `json:"started"`
	Provider           string `json:"provider"`
	Model              string `json:"model"`
	Snapshot           string `json:"snapshot,omitempty"`
	InstructionVersion string `json:"instruction_version"`
}
