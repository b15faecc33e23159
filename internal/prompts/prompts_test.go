package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectionPromptsListLabelsInOrder(t *testing.T) {
	_, user := SelectionPrompts("Pizza Party", []string{"0", "1", "0->1"})

	assert.Contains(t, user, `3 edited candidates`)
	assert.Contains(t, user, `"0", "1", "0->1"`)
	assert.Contains(t, user, `"Pizza Party" theme`)
}

func TestVenueString(t *testing.T) {
	v := Venue{Title: "Rooftop", Tags: []string{"Party", "BBQ"}, Theme: "Halloween"}
	assert.Equal(t, "Venue: Rooftop\nTags: Party, BBQ\nTheme: Halloween\n", v.String())
	assert.Equal(t, "Venue: Bare\n", Venue{Title: "Bare"}.String())
}

func TestCopyPromptsCarryLimits(t *testing.T) {
	v := Venue{Title: "Rooftop"}
	assert.Contains(t, Headlines(v, "Japanese", 3, 30), "exactly 3 ad headlines in Japanese")
	assert.Contains(t, Headlines(v, "Japanese", 3, 30), "at most 30 characters")
	assert.Contains(t, Descriptions(v, "Japanese", 2, 90), "at most 90 characters")
	assert.Contains(t, Keywords(v, "Japanese", 10), "exactly 10 search keywords")
	assert.Contains(t, EditExtraction("  1. swap the lamp  "), "Description:\n1. swap the lamp")
}
