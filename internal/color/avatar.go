// Package color derives stable avatar background colors from usernames.
package color

import (
	"fmt"
	"strings"
)

// ForUser returns a "#RRGGBB" color for username. The same name always maps
// to the same color; names differing only in case share one.
// Saturation and lightness are fixed so white initials stay readable.
func ForUser(username string) string {
	r, g, b := hslToRGB(hueFor(strings.ToLower(username)), 0.4, 0.65)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// Hex is ForUser without the leading '#', the form avatar services take
// as a query parameter.
func Hex(username string) string {
	return strings.TrimPrefix(ForUser(username), "#")
}

func hueFor(seed string) float64 {
	h := 0
	for _, c := range seed {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return float64(h % 360)
}

// hslToRGB converts HSL color space to RGB.
// h: hue (0-360), s: saturation (0-1), l: lightness (0-1)
// Returns RGB values (0-255).
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h /= 360.0

	var r1, g1, b1 float64

	if s == 0 {
		// Achromatic (gray)
		r1, g1, b1 = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q

		r1 = hueToRGB(p, q, h+1.0/3.0)
		g1 = hueToRGB(p, q, h)
		b1 = hueToRGB(p, q, h-1.0/3.0)
	}

	r = uint8(r1 * 255)
	g = uint8(g1 * 255)
	b = uint8(b1 * 255)
	return
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
