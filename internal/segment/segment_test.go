package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	limits := DefaultLimits()

	tests := []struct {
		name string
		text string
		want Estimate
	}{
		{
			name: "empty message",
			text: "",
			want: Estimate{},
		},
		{
			name: "160 ascii chars fit one segment",
			text: strings.Repeat("a", 160),
			want: Estimate{Segments: 1, CharCount: 160},
		},
		{
			name: "161 ascii chars need two segments",
			text: strings.Repeat("a", 161),
			want: Estimate{Segments: 2, CharCount: 161},
		},
		{
			name: "306 chars still two segments",
			text: strings.Repeat("a", 306),
			want: Estimate{Segments: 2, CharCount: 306},
		},
		{
			name: "307 chars roll into a third",
			text: strings.Repeat("a", 307),
			want: Estimate{Segments: 3, CharCount: 307},
		},
		{
			name: "gsm extension char costs two septets",
			text: strings.Repeat("a", 159) + "€",
			want: Estimate{Segments: 2, CharCount: 161},
		},
		{
			name: "70 unicode chars fit one segment",
			text: strings.Repeat("न", 70),
			want: Estimate{Segments: 1, CharCount: 70, Unicode: true},
		},
		{
			name: "71 unicode chars need two segments",
			text: strings.Repeat("न", 71),
			want: Estimate{Segments: 2, CharCount: 71, Unicode: true},
		},
		{
			name: "one emoji flips the whole message to unicode",
			text: "hello 🙂",
			want: Estimate{Segments: 1, CharCount: 7, Unicode: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.text, limits))
		})
	}
}

func TestForConfigurableUnicodeWindows(t *testing.T) {
	limits := DefaultLimits()
	limits.UnicodeSingle = 60
	limits.UnicodeChunk = 57

	got := For(strings.Repeat("ह", 61), limits)
	assert.Equal(t, Estimate{Segments: 2, CharCount: 61, Unicode: true}, got)
}
