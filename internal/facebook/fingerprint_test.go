package facebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Stable(t *testing.T) {
	p := Params{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	fp := Fingerprint("https://api.example/x", p)

	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint("https://api.example/x", Params{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}))
}

func TestFingerprint_Distinguishes(t *testing.T) {
	base := Fingerprint("https://api.example/x", Params{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}})

	tests := []struct {
		name   string
		url    string
		params Params
	}{
		{"SwappedOrder", "https://api.example/x", Params{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}},
		{"DifferentValue", "https://api.example/x", Params{{Key: "a", Value: "1"}, {Key: "b", Value: "3"}}},
		{"DifferentURL", "https://api.example/y", Params{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}},
		{"ConcatenatedValues", "https://api.example/x", Params{{Key: "a", Value: "12"}}},
		{"ShiftedBoundary", "https://api.example/x", Params{{Key: "a", Value: "1b"}, {Key: "", Value: "2"}}},
		{"FileInsteadOfValue", "https://api.example/x", Params{{Key: "a", Value: "1"}, FileParam("b", "2")}},
		{"ValueMovedIntoURL", "https://api.example/x1", Params{{Key: "b", Value: "2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, Fingerprint(tt.url, tt.params))
		})
	}
}

func TestFingerprint_EmptyParams(t *testing.T) {
	assert.Equal(t, Fingerprint("https://api.example/x", nil), Fingerprint("https://api.example/x", Params{}))
}
