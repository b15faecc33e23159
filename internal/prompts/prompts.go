// Package prompts holds the instruction templates sent to the language model.
package prompts

import (
	"fmt"
	"strings"
)

const editSystemPrompt = "You are a set designer who restyles photos of rentable event spaces. You only propose edits to objects that are clearly visible in the photo, and you keep the room itself recognisable."

const editUserTemplate = `Look at the photo of this venue and propose exactly three edits that make it look ready for a %q event.
For each edit:
- name one concrete object or surface that is visible in the photo (the thing to search for),
- describe what it should be replaced with so that the theme shows.
Keep each phrase short (under 12 words). Number the edits 1 to 3.`

const editExtractTemplate = `Below is a description of three proposed photo edits. Extract them as two lists of exactly three short phrases each:
"search" holds what to find in the photo and "replace" holds what it becomes, in the same order.

Description:
%s`

const selectionSystemPrompt = "You are an art director judging edited photos of an event venue. You are strict about artefacts, distorted objects and edits that ignore the theme."

const selectionUserTemplate = `The first image is the original venue photo. It is followed by %d edited candidates, in this order: %s.
Compare every candidate with the original for the %q theme. Rank them, judging how well the theme shows, how natural the result looks and whether the venue is still recognisable. Refer to candidates only by their label.`

const selectionExtractTemplate = `Below is an assessment of edited candidates labelled %s. Return the label of the single best candidate, exactly as written.

Assessment:
%s`

const copySystemPrompt = "You write Google search ads for rentable event spaces. You respect character limits strictly and never invent facts about the venue."

const headlineTemplate = `Write exactly %d ad headlines in %s for the venue below. Each headline must be at most %d characters, where full-width characters count as two.
%s`

const descriptionTemplate = `Write exactly %d ad descriptions in %s for the venue below. Each description must be at most %d characters, where full-width characters count as two.
%s`

const keywordTemplate = `Write exactly %d search keywords in %s that people looking to book the venue below would type. Keywords are short phrases, without punctuation.
%s`

const trendTemplate = `Suggest up to %d party or event themes that would suit the venue below and are popular right now. Each theme is two to four words, for example "Pizza Party".
%s`

// EditPrompts returns the system and user prompt asking for three themed edits.
func EditPrompts(theme string) (string, string) {
	return editSystemPrompt, fmt.Sprintf(editUserTemplate, theme)
}

// EditExtraction returns the prompt that turns an edit description into lists.
func EditExtraction(description string) string {
	return fmt.Sprintf(editExtractTemplate, strings.TrimSpace(description))
}

// SelectionPrompts returns the system and user prompt for comparing candidates.
func SelectionPrompts(theme string, labels []string) (string, string) {
	return selectionSystemPrompt, fmt.Sprintf(selectionUserTemplate, len(labels), quoteLabels(labels), theme)
}

// SelectionExtraction returns the prompt that extracts one label from an assessment.
func SelectionExtraction(labels []string, assessment string) string {
	return fmt.Sprintf(selectionExtractTemplate, quoteLabels(labels), strings.TrimSpace(assessment))
}

// Venue is the context shared by the ad copy and trend prompts.
type Venue struct {
	Title string
	Tags  []string
	Theme string
}

func (v Venue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Venue: %s\n", v.Title)
	if len(v.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(v.Tags, ", "))
	}
	if v.Theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", v.Theme)
	}
	return b.String()
}

// CopySystemPrompt is shared by the headline, description and keyword calls.
func CopySystemPrompt() string {
	return copySystemPrompt
}

// Headlines asks for count headlines of at most maxLen characters.
func Headlines(v Venue, language string, count, maxLen int) string {
	return fmt.Sprintf(headlineTemplate, count, language, maxLen, v)
}

// Descriptions asks for count descriptions of at most maxLen characters.
func Descriptions(v Venue, language string, count, maxLen int) string {
	return fmt.Sprintf(descriptionTemplate, count, language, maxLen, v)
}

// Keywords asks for count search keywords.
func Keywords(v Venue, language string, count int) string {
	return fmt.Sprintf(keywordTemplate, count, language, v)
}

// Trends asks for up to limit theme suggestions.
func Trends(v Venue, limit int) string {
	return fmt.Sprintf(trendTemplate, limit, v)
}

func quoteLabels(labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}
	return strings.Join(quoted, ", ")
}
