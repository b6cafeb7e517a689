package visitors

import (
	"strings"
	"unicode"

	nanoid "github.com/jaevor/go-nanoid"
)

// Prefix marks anonymous visitor identifiers, whether generated by the
// browser snippet or assigned here.
const Prefix = "visitor_"

// MaxIDLength bounds client-supplied visitor identifiers.
const MaxIDLength = 128

const generatedLength = 21

var generate = mustGenerator()

func mustGenerator() func() string {
	gen, err := nanoid.Standard(generatedLength)
	if err != nil {
		panic(err)
	}
	return gen
}

// NewID returns a fresh anonymous visitor identifier. It is used when the
// client did not persist one of its own.
func NewID() string {
	return Prefix + generate()
}

// NormalizeID trims a client-supplied identifier and reports whether it is
// acceptable: non-empty, bounded and free of whitespace or control characters.
func NormalizeID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > MaxIDLength {
		return id, false
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return id, false
		}
	}
	return id, true
}
