package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-ranker/internal/types"
)

func TestExtractResumeDetails_NoEntities(t *testing.T) {
	details := ExtractResumeDetails(nil)
	assert.True(t, details.IsEmpty())
	assert.Equal(t, types.ResumeDetails{}, details)
}

func TestExtractResumeDetails_FirstMatchWins(t *testing.T) {
	details := ExtractResumeDetails([]types.Entity{
		{Label: types.LabelPerson, Text: "Alice", Start: 0},
		{Label: types.LabelEmail, Text: "alice@example.com", Start: 10},
		{Label: types.LabelPhone, Text: "555-123-4567", Start: 30},
		{Label: types.LabelPerson, Text: "Bob", Start: 50},
		{Label: types.LabelEmail, Text: "bob@example.com", Start: 60},
		{Label: types.LabelPhone, Text: "555-987-6543", Start: 80},
	})

	assert.Equal(t, "Alice", details.Name)
	assert.Equal(t, "alice@example.com", details.Email)
	assert.Equal(t, "555-123-4567", details.Phone)
}

func TestExtractResumeDetails_LastMatchWins(t *testing.T) {
	details := ExtractResumeDetails([]types.Entity{
		{Label: types.LabelOrg, Text: "Acme Corp", Start: 0},
		{Label: types.LabelDate, Text: "2015-2018", Start: 10},
		{Label: types.LabelOrg, Text: "MIT", Start: 20},
		{Label: types.LabelDate, Text: "2019 - Present", Start: 30},
	})

	assert.Equal(t, "MIT", details.Education)
	assert.Equal(t, "2019 - Present", details.Experience)
}

func TestExtractResumeDetails_WorkOfArtCountsAsEducation(t *testing.T) {
	details := ExtractResumeDetails([]types.Entity{
		{Label: types.LabelOrg, Text: "Stanford University", Start: 0},
		{Label: types.LabelWorkOfArt, Text: "Bachelor of Science", Start: 30},
	})
	assert.Equal(t, "Bachelor of Science", details.Education)
}

func TestExtractResumeDetails_IgnoresOtherLabelsAndSkills(t *testing.T) {
	details := ExtractResumeDetails([]types.Entity{
		{Label: types.LabelGPE, Text: "Berlin", Start: 0},
		{Label: "PRODUCT", Text: "Kubernetes", Start: 10},
	})
	assert.True(t, details.IsEmpty())
	assert.Nil(t, details.Skills)
}
