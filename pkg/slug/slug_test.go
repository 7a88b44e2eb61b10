package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"My Org!", "my-org"},
		{"Acme", "acme"},
		{"  Acme -- Labs  ", "acme-labs"},
		{"ACME_Corp.v2", "acme-corp-v2"},
		{"---", ""},
		{"", ""},
		{"Çafé Team", "af-team"},
		{"123 Go", "123-go"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.input))
		})
	}
}

func TestGenerate_NoDoubleHyphens(t *testing.T) {
	assert.NotContains(t, Generate("a!!!b???c"), "--")
}
