// Package segment computes SMS segment counts. The rule is a pure function
// of the rendered text and is identical for every provider.
package segment

import "strings"

// Limits holds the per-segment character windows. GSM limits follow the
// GSM 03.38 standard; the unicode windows default to 70/67 but stay
// configurable because upstream providers disagree on the exact values.
type Limits struct {
	GSMSingle     int
	GSMChunk      int
	UnicodeSingle int
	UnicodeChunk  int
}

func DefaultLimits() Limits {
	return Limits{GSMSingle: 160, GSMChunk: 153, UnicodeSingle: 70, UnicodeChunk: 67}
}

// Estimate is the result of a segment computation. CharCount is septets for
// GSM text and runes for unicode text.
type Estimate struct {
	Segments  int  `json:"segments"`
	CharCount int  `json:"char_count"`
	Unicode   bool `json:"unicode"`
}

// gsmBasic is the GSM 03.38 basic character set.
const gsmBasic = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"

// gsmExtension characters are sent as an escape plus the character, costing
// two septets each.
const gsmExtension = "^{}\\[~]|€"

// For computes the segment estimate for text under the given limits.
func For(text string, l Limits) Estimate {
	if text == "" {
		return Estimate{}
	}

	septets := 0
	unicode := false
	for _, r := range text {
		switch {
		case strings.ContainsRune(gsmExtension, r):
			septets += 2
		case strings.ContainsRune(gsmBasic, r):
			septets++
		default:
			unicode = true
		}
	}

	if unicode {
		count := len([]rune(text))
		return Estimate{Segments: chunks(count, l.UnicodeSingle, l.UnicodeChunk), CharCount: count, Unicode: true}
	}
	return Estimate{Segments: chunks(septets, l.GSMSingle, l.GSMChunk), CharCount: septets}
}

func chunks(count, single, chunk int) int {
	if count <= single {
		return 1
	}
	return (count + chunk - 1) / chunk
}
