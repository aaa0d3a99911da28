// Package id mints the opaque string identifiers used for sessions, tokens,
// images, event stream clients and generation tasks.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate returns prefix, a hyphen and a 21 character NanoID, for example
// "sess-V1StGXR8_Z5jdHi6B-myT". It fails only when the system cannot supply
// secure randomness.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}
