package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "uppercase accented vowels", in: "ÁÉÍÓÚ mix MEXICO", want: "aeiou mix mexico"},
		{name: "lowercase accented vowels", in: "energía eléctrica", want: "energia electrica"},
		{name: "trims whitespace", in: "  Puebla \t\n", want: "puebla"},
		{name: "empty", in: "", want: ""},
		{name: "enye untouched", in: "Diseño", want: "diseño"},
		{name: "diaeresis untouched", in: "Güero", want: "güero"},
		{name: "grave accent untouched", in: "à", want: "à"},
		{name: "inner whitespace kept", in: "Ciudad  de   México", want: "ciudad  de   mexico"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{"ÁÉÍÓÚ mix MEXICO", "  Nuevo León ", "Diseño Güero", "", "Energía"}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}
