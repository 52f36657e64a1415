package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEntries(t *testing.T) {
	input := "numberplate,reason\nMH 12 AB 1234,stolen\nKA01X9\n ,empty\n"

	entries, skipped, err := readEntries(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, skipped)

	assert.Equal(t, "MH12AB1234", entries[0].Plate())
	assert.Equal(t, "stolen", entries[0].ReasonOrDefault())
	assert.Equal(t, "KA01X9", entries[1].Plate())
	assert.Equal(t, "Imported from CSV", entries[1].ReasonOrDefault())
}

func TestReadEntries_Malformed(t *testing.T) {
	_, _, err := readEntries(strings.NewReader("\"unterminated\n"))
	assert.ErrorContains(t, err, "line 1")
}
