package clinic

import "strings"

// Terminology resolves vertical-specific wording for patient-facing
// messages. The production provider lives with the template service; this
// package ships a built-in fallback so reminders always have a noun.
type Terminology interface {
	// AppointmentNoun returns the word a clinic of the given vertical
	// uses for a booked slot, e.g. "consulta" or "sessão".
	AppointmentNoun(vertical string) string
}

type defaultTerminology struct{}

// DefaultTerminology returns the built-in pt-BR terminology provider.
func DefaultTerminology() Terminology {
	return defaultTerminology{}
}

var verticalNouns = map[string]string{
	"medica":       "consulta",
	"odontologica": "consulta",
	"nutricao":     "consulta",
	"estetica":     "sessão",
	"psicologia":   "sessão",
	"fisioterapia": "sessão",
}

func (defaultTerminology) AppointmentNoun(vertical string) string {
	if noun, ok := verticalNouns[strings.ToLower(strings.TrimSpace(vertical))]; ok {
		return noun
	}
	return "consulta"
}
