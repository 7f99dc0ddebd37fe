package services

import (
	"testing"

	"github.com/M2YTech/libaas-backend/models"

	"github.com/stretchr/testify/assert"
)

func strRef(value string) *string {
	return &value
}

func styledUser() models.UserAccount {
	return models.UserAccount{
		Name:      "Ayesha",
		Gender:    models.GenderFemale,
		BodyShape: strRef("hourglass"),
		SkinTone:  strRef("wheat"),
		Height:    strRef("165"),
		Country:   strRef("Pakistan"),
	}
}

func TestBuildOutfitPromptIncludesProfileAndEvent(t *testing.T) {
	in := models.OutfitRequestIn{
		NumLooks:   3,
		EventType:  "wedding",
		EventVenue: "banquet hall",
		EventTime:  "evening",
		Weather:    "mild",
		Theme:      "traditional",
	}

	prompt := BuildOutfitPrompt(styledUser(), in)

	assert.Contains(t, prompt, "Generate 3 complete outfit recommendations for a female based in Pakistan.")
	assert.Contains(t, prompt, "- Body Shape: hourglass")
	assert.Contains(t, prompt, "- Skin Tone: wheat")
	assert.Contains(t, prompt, "- Event Type: wedding")
	assert.Contains(t, prompt, "- Venue: banquet hall")
	assert.Contains(t, prompt, "- Theme: traditional")

	assert.Equal(t, prompt, BuildOutfitPrompt(styledUser(), in))
}

func TestBuildOutfitPromptDefaults(t *testing.T) {
	prompt := BuildOutfitPrompt(models.UserAccount{}, models.OutfitRequestIn{NumLooks: 1})

	assert.Contains(t, prompt, "for a male based in Pakistan")
	assert.Contains(t, prompt, "- Body Shape: Not specified")
	assert.Contains(t, prompt, "- Skin Tone: Not specified")
	assert.Contains(t, prompt, "- Height: Not specified")
}

func TestBuildStyleInsightsPrompt(t *testing.T) {
	prompt := BuildStyleInsightsPrompt(styledUser())

	assert.Contains(t, prompt, "Gender: Female, Body Shape: Hourglass, Skin Tone: Wheat, Location: Pakistan, Height: 165")
	assert.Contains(t, prompt, `"cultural_tips"`)
}

func TestBuildStyleInsightsPromptDefaults(t *testing.T) {
	prompt := BuildStyleInsightsPrompt(models.UserAccount{Gender: models.GenderMale})

	assert.Contains(t, prompt, "Gender: Male, Body Shape: Not Specified, Skin Tone: Not Specified, Location: Pakistan, Height: Not specified")
}

func TestBuildImagePrompt(t *testing.T) {
	look := OutfitLook{
		Title: "Smart Evening",
		OutfitSections: OutfitSections{
			Top:         &OutfitSection{Item: "Navy blazer", Details: []string{"Slim cut"}},
			Bottom:      &OutfitSection{Item: "Charcoal trousers", Details: []string{}},
			Accessories: &AccessoryList{Items: []string{"Leather watch", "Pocket square"}},
		},
	}

	prompt := BuildImagePrompt(look, styledUser())

	assert.Contains(t, prompt, "A well-groomed Pakistan female with hourglass build and wheat skin tone")
	assert.Contains(t, prompt, "wearing Navy blazer (Slim cut)")
	assert.Contains(t, prompt, "paired with Charcoal trousers")
	assert.NotContains(t, prompt, "Charcoal trousers (")
	assert.Contains(t, prompt, "accessorized with Leather watch, Pocket square")
	assert.Contains(t, prompt, "cultural Pakistan fashion")
}

func TestBuildImagePromptEmptyLook(t *testing.T) {
	prompt := BuildImagePrompt(OutfitLook{}, models.UserAccount{})

	assert.Equal(t, "A well-groomed Pakistan male, cultural Pakistan fashion, full body shot, professional photography, natural lighting, clean background", prompt)
}
