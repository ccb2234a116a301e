package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingMapCountDone(t *testing.T) {
	m := NewListingMap([]string{"https://a", "https://b", "https://c"})
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 0, m.CountDone())

	m.Set(0, &ListingState{Number: 1, URL: "https://a", Status: StatusDone})
	m.Set(2, &ListingState{Number: 3, URL: "https://c", Status: StatusManual})
	m.Set(7, &ListingState{Status: StatusDone})

	assert.Equal(t, 2, m.CountDone())
	assert.Nil(t, m.Get(7))
	assert.Equal(t, StatusPending, m.Get(1).Status)
}

func TestDeckStateJSON(t *testing.T) {
	state := NewDeckState("Healthcare", []string{"https://a"})

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "resolving", decoded["status"])
	listings, ok := decoded["listings"].([]interface{})
	require.True(t, ok)
	require.Len(t, listings, 1)
	assert.Equal(t, "pending", listings[0].(map[string]interface{})["status"])
}

func TestListingSources(t *testing.T) {
	l := &Listing{}
	l.AddSource("static")
	l.AddSource("browser")
	l.AddSource("static")
	assert.Equal(t, []string{"static", "browser"}, l.Sources)

	assert.False(t, l.Extracted())
	l.NameFound = true
	assert.True(t, l.Extracted())
	assert.False(t, l.Complete())
}

func TestFormatMIME(t *testing.T) {
	assert.Equal(t, "application/pdf", FormatPDF.MIME())
	assert.Contains(t, FormatPPTX.MIME(), "presentationml")
	assert.Contains(t, Format("").MIME(), "presentationml")
}
