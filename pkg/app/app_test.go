package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptTitleFromReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"typed", "One Piece\n", "One Piece"},
		{"trimmed", "  Berserk  \r\n", "Berserk"},
		{"blank", "\n", "Untitled_Manga"},
		{"eof without newline", "Dandadan", "Dandadan"},
		{"empty input", "", "Untitled_Manga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := PromptTitle(strings.NewReader(tt.input), &out, "Untitled_Manga")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Untitled_Manga")
		})
	}
}
