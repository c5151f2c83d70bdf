package pdfextract

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
)

func glyphs(s string, x, y, size, width float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{FontSize: size, X: x, Y: y, W: width, S: string(r)})
		x += width
	}
	return out
}

func TestLayoutLines(t *testing.T) {
	tests := []struct {
		name   string
		glyphs []pdf.Text
		want   string
	}{
		{
			name:   "empty",
			glyphs: nil,
			want:   "",
		},
		{
			name:   "vertical move starts a line",
			glyphs: append(glyphs("Title", 72, 720, 18, 0), glyphs("Body", 72, 696, 18, 0)...),
			want:   "Title\nBody",
		},
		{
			name:   "small baseline jitter stays on the line",
			glyphs: append(glyphs("ab", 72, 720, 12, 6), glyphs("cd", 84, 719.5, 12, 6)...),
			want:   "abcd",
		},
		{
			name:   "horizontal gap becomes a space",
			glyphs: append(glyphs("Acme", 72, 720, 12, 6), glyphs("Robotics", 140, 720, 12, 6)...),
			want:   "Acme Robotics",
		},
		{
			name: "array terminators are dropped",
			glyphs: append(append(glyphs("Go", 72, 720, 12, 6), pdf.Text{S: "\n", X: 84, Y: 720}),
				glyphs("pher", 84, 720, 12, 6)...),
			want: "Gopher",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, layoutLines(tt.glyphs))
		})
	}
}
