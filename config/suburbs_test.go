package config

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSuburb(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Lower case", input: "parramatta", expected: "Parramatta"},
		{name: "Upper case", input: "CHATSWOOD", expected: "Chatswood"},
		{name: "Multiple words with extra spaces", input: "  north   PARRAMATTA ", expected: "North Parramatta"},
		{name: "Empty", input: "", expected: ""},
		{name: "Multi-byte initial", input: "émile street", expected: "Émile Street"},
		{name: "Multi-byte upper case", input: "ÉTOILE ÅRHUS", expected: "Étoile Århus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSuburb(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestGetSuburbNames(t *testing.T) {
	names := GetSuburbNames()
	assert.Len(t, names, len(SupportedSuburbs))
	assert.Contains(t, names, "Parramatta")
	assert.Contains(t, names, "Chatswood")
}

func TestGetSuburbByName(t *testing.T) {
	suburb := GetSuburbByName("parramatta")
	require.NotNil(t, suburb)
	assert.Equal(t, "2150", suburb.Postcode)
	assert.Equal(t, []float64{-33.8136, 151.0034}, suburb.Center)

	// The returned value is a copy
	suburb.Postcode = "0000"
	assert.Equal(t, "2150", GetSuburbByName("Parramatta").Postcode)

	assert.Nil(t, GetSuburbByName("Atlantis"))
}
