package clinic

import "testing"

func TestDefaultTerminology(t *testing.T) {
	terms := DefaultTerminology()
	tests := []struct {
		vertical string
		want     string
	}{
		{"medica", "consulta"},
		{"estetica", "sessão"},
		{"psicologia", "sessão"},
		{"ESTETICA", "sessão"},
		{" odontologica ", "consulta"},
		{"", "consulta"},
		{"veterinaria", "consulta"},
	}
	for _, tc := range tests {
		if got := terms.AppointmentNoun(tc.vertical); got != tc.want {
			t.Fatalf("AppointmentNoun(%q) = %q, want %q", tc.vertical, got, tc.want)
		}
	}
}
