package services

import (
	"testing"

	"github.com/M2YTech/libaas-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkdownFences(t *testing.T) {
	fenced := "```json\n{\"summary\": \"ok\"}\n```"
	assert.Equal(t, `{"summary": "ok"}`, StripMarkdownFences(fenced))

	bare := "```\n{\"summary\": \"ok\"}\n```"
	assert.Equal(t, `{"summary": "ok"}`, StripMarkdownFences(bare))

	clean := `{"summary": "ok"}`
	assert.Equal(t, clean, StripMarkdownFences(clean))
	assert.Equal(t, clean, StripMarkdownFences(StripMarkdownFences(fenced)))
}

func TestNormalizeStyleInsightsComplete(t *testing.T) {
	raw := `{
		"summary": "You lean towards minimal looks.",
		"color_palette": ["navy", "cream"],
		"style_recommendations": ["Wrap dresses"],
		"wardrobe_essentials": ["White shirt"],
		"fashion_dos": ["Belt at the waist"],
		"fashion_donts": ["Oversized everything"],
		"cultural_tips": "Lawn suits are a summer staple."
	}`

	insights, malformed, ok := NormalizeStyleInsights(raw)

	require.True(t, ok)
	assert.Empty(t, malformed)
	assert.Equal(t, "You lean towards minimal looks.", insights.Summary)
	assert.Equal(t, []string{"navy", "cream"}, insights.ColorPalette)
	assert.Equal(t, []string{"Wrap dresses"}, insights.StyleRecommendations)
	assert.Equal(t, "Lawn suits are a summer staple.", insights.CulturalTips)
}

func TestNormalizeStyleInsightsFenced(t *testing.T) {
	raw := "```json\n{\"summary\": \"Fenced but fine.\"}\n```"

	insights, malformed, ok := NormalizeStyleInsights(raw)

	require.True(t, ok)
	assert.Empty(t, malformed)
	assert.Equal(t, "Fenced but fine.", insights.Summary)
}

func TestNormalizeStyleInsightsMissingKeys(t *testing.T) {
	insights, malformed, ok := NormalizeStyleInsights(`{"summary": "Short reply."}`)

	require.True(t, ok)
	assert.Empty(t, malformed)
	assert.Equal(t, "Short reply.", insights.Summary)
	assert.Equal(t, []string{}, insights.ColorPalette)
	assert.Equal(t, []string{}, insights.FashionDos)
	assert.Equal(t, "", insights.CulturalTips)
}

func TestNormalizeStyleInsightsWrongShapes(t *testing.T) {
	raw := `{
		"summary": 42,
		"color_palette": "navy",
		"fashion_dos": ["Keep it simple"]
	}`

	insights, malformed, ok := NormalizeStyleInsights(raw)

	require.True(t, ok)
	assert.ElementsMatch(t, []string{"summary", "color_palette"}, malformed)
	assert.Equal(t, "", insights.Summary)
	assert.Equal(t, []string{}, insights.ColorPalette)
	assert.Equal(t, []string{"Keep it simple"}, insights.FashionDos)
}

func TestNormalizeStyleInsightsNotAnObject(t *testing.T) {
	for _, raw := range []string{"I cannot help with that.", `["just", "a", "list"]`, ""} {
		insights, _, ok := NormalizeStyleInsights(raw)
		assert.False(t, ok, raw)
		assert.Equal(t, FallbackStyleInsights(""), insights, raw)
	}
}

func TestNormalizeOutfitsComplete(t *testing.T) {
	raw := `{
		"outfits": [
			{
				"title": "Garden Party",
				"description": "Light and breezy.",
				"top": {"item": "Linen shirt", "details": ["Relaxed fit"]},
				"bottom": {"item": "Chinos", "details": []},
				"accessories": {"items": ["Straw hat"]}
			}
		]
	}`

	looks, ok := NormalizeOutfits(raw, models.UserAccount{Gender: models.GenderMale})

	require.True(t, ok)
	require.Len(t, looks, 1)
	look := looks[0]
	assert.Equal(t, 1, look.ID)
	assert.Equal(t, "Garden Party", look.Title)
	require.NotNil(t, look.Top)
	assert.Equal(t, "Linen shirt", look.Top.Item)
	assert.Equal(t, []string{"Relaxed fit"}, look.Top.Details)
	assert.Nil(t, look.Layer)
	assert.Nil(t, look.Footwear)
	require.NotNil(t, look.Accessories)
	assert.Equal(t, []string{"Straw hat"}, look.Accessories.Items)
	assert.Empty(t, look.MalformedSections)
	assert.Contains(t, look.FullTextPrompt, "wearing Linen shirt (Relaxed fit)")
}

func TestNormalizeOutfitsDefaults(t *testing.T) {
	looks, ok := NormalizeOutfits(`{"outfits": [{}, {}]}`, models.UserAccount{})

	require.True(t, ok)
	require.Len(t, looks, 2)
	assert.Equal(t, "Look 1", looks[0].Title)
	assert.Equal(t, "Look 2", looks[1].Title)
	assert.Equal(t, 2, looks[1].ID)
	assert.Nil(t, looks[0].Top)
	assert.NotEmpty(t, looks[0].FullTextPrompt)
}

func TestNormalizeOutfitsMalformedSection(t *testing.T) {
	raw := `{
		"outfits": [
			{
				"title": "Broken",
				"top": "just a string",
				"bottom": {"item": "Jeans"}
			}
		]
	}`

	looks, ok := NormalizeOutfits(raw, models.UserAccount{})

	require.True(t, ok)
	require.Len(t, looks, 1)
	look := looks[0]
	assert.Equal(t, []string{"top"}, look.MalformedSections)
	// Replaced with an empty section rather than dropped
	require.NotNil(t, look.Top)
	assert.Equal(t, "", look.Top.Item)
	require.NotNil(t, look.Bottom)
	assert.Equal(t, "Jeans", look.Bottom.Item)
}

func TestNormalizeOutfitsUnusable(t *testing.T) {
	for _, raw := range []string{"no json today", `{"outfits": []}`, `{"other": 1}`} {
		looks, ok := NormalizeOutfits(raw, models.UserAccount{})
		assert.False(t, ok, raw)
		assert.Nil(t, looks, raw)
	}
}

func TestNormalizeVisionResult(t *testing.T) {
	raw := `{
		"top_label": "Traditional (Desi)",
		"top_confidence": 0.87,
		"all_predictions": [{"label": "Casual", "score": 0.1}]
	}`

	result, ok := NormalizeVisionResult(raw, "openai")

	require.True(t, ok)
	assert.Equal(t, "Traditional (Desi)", result.TopLabel)
	assert.Equal(t, 0.87, result.TopConfidence)
	require.Len(t, result.AllPredictions, 1)
	assert.Equal(t, "Casual", result.AllPredictions[0]["label"])
	assert.Equal(t, "openai", result.Source)
}

func TestNormalizeVisionResultPartial(t *testing.T) {
	result, ok := NormalizeVisionResult(`{"top_label": "Minimalist"}`, "openai")

	require.True(t, ok)
	assert.Equal(t, "Minimalist", result.TopLabel)
	assert.Equal(t, 0.0, result.TopConfidence)
	assert.Equal(t, []map[string]interface{}{}, result.AllPredictions)
}

func TestNormalizeVisionResultUnusable(t *testing.T) {
	result, ok := NormalizeVisionResult("the model refused", "openai")

	assert.False(t, ok)
	assert.Equal(t, "unknown", result.TopLabel)
	assert.Equal(t, 0.0, result.TopConfidence)
}
