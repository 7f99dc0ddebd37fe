package services

import (
	"testing"

	"github.com/M2YTech/libaas-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDescription(t *testing.T) {
	assert.Equal(t, "Perfect for a wedding celebration", EventDescription("wedding"))
	assert.Equal(t, "Perfect for a wedding celebration", EventDescription("WEDDING"))
	assert.Equal(t, "Professional and polished for the workplace", EventDescription("office"))
	assert.Equal(t, "Perfect for any occasion", EventDescription("book club"))
}

func wardrobeFor(ownerID uint) []models.WardrobeItem {
	return []models.WardrobeItem{
		{OwnerID: ownerID, Name: "White Kurta", Category: "Tops", Color: "white", Style: "traditional", Pattern: "plain"},
		{OwnerID: ownerID, Name: "Blue Shirt", Category: "Tops", Color: "blue", Style: "casual", Pattern: "plain"},
		{OwnerID: ownerID, Name: "Black Jeans", Category: "Bottoms", Color: "black", Style: "casual", Pattern: "plain"},
		{OwnerID: ownerID, Name: "Brown Loafers", Category: "Footwear", Color: "brown", Style: "smart", Pattern: "plain"},
		{OwnerID: ownerID, Name: "Grey Waistcoat", Category: "Layers", SubCategory: "waistcoat", Color: "grey", Style: "formal", Pattern: "plain"},
		{OwnerID: ownerID, Name: "Leather Watch", Category: "Accessories", Color: "brown", Style: "classic", Pattern: "plain"},
	}
}

func TestBuildFallbackLooksFromWardrobe(t *testing.T) {
	user := styledUser()
	looks := BuildFallbackLooks(user, wardrobeFor(1), "wedding", 2)

	require.Len(t, looks, 2)
	first := looks[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Wedding Look 1", first.Title)
	require.NotNil(t, first.Top)
	assert.Equal(t, "White Kurta", first.Top.Item)
	assert.Equal(t, []string{"white", "traditional", "plain"}, first.Top.Details)
	require.NotNil(t, first.Bottom)
	assert.Equal(t, "Black Jeans", first.Bottom.Item)
	require.NotNil(t, first.Layer)
	assert.Equal(t, "Grey Waistcoat", first.Layer.Item)
	require.NotNil(t, first.Footwear)
	assert.Equal(t, "Brown Loafers", first.Footwear.Item)
	require.NotNil(t, first.Accessories)
	assert.Equal(t, []string{"Leather Watch"}, first.Accessories.Items)
	assert.Contains(t, first.Description, "Perfect for a wedding celebration")
	assert.Contains(t, first.Description, "Hourglass silhouette")
	assert.Contains(t, first.Description, "White tones that complement your Wheat complexion")
	assert.NotEmpty(t, first.FullTextPrompt)

	// Looks rotate through the bucket instead of repeating the same top
	second := looks[1]
	assert.Equal(t, "Blue Shirt", second.Top.Item)
	assert.Equal(t, "Black Jeans", second.Bottom.Item)
}

func TestBuildFallbackLooksDeterministic(t *testing.T) {
	user := styledUser()
	once := BuildFallbackLooks(user, wardrobeFor(1), "party", 3)
	again := BuildFallbackLooks(user, wardrobeFor(1), "party", 3)

	assert.Equal(t, once, again)
}

func TestBuildFallbackLooksEmptyWardrobe(t *testing.T) {
	looks := BuildFallbackLooks(models.UserAccount{}, nil, "office", 0)

	require.Len(t, looks, 3)
	look := looks[0]
	assert.Equal(t, "Office Look 1", look.Title)
	assert.Nil(t, look.Top)
	assert.Nil(t, look.Bottom)
	assert.Nil(t, look.Accessories)
	assert.Contains(t, look.Description, "Professional and polished for the workplace")
	assert.NotEmpty(t, look.FullTextPrompt)
}

func TestProfileRecommendationsFullProfile(t *testing.T) {
	rec := ProfileRecommendations(styledUser())

	assert.Equal(t, []string{"olive", "rust", "mustard", "teal", "cream"}, rec.Colors)
	assert.Equal(t, []string{"Fitted waists", "Wrap styles", "High-waisted bottoms"}, rec.Silhouettes)
	assert.Contains(t, rec.StyleTips, "Invest in well-fitted basics before statement pieces")
	assert.Contains(t, rec.CulturalWear, "Embroidered kurta with cigarette pants")
}

func TestProfileRecommendationsHeightTips(t *testing.T) {
	tall := styledUser()
	tall.Height = strRef("180cm")
	rec := ProfileRecommendations(tall)
	assert.Contains(t, rec.StyleTips, "Longline coats and wide-leg trousers carry your height well")

	short := styledUser()
	short.Height = strRef("152")
	rec = ProfileRecommendations(short)
	assert.Contains(t, rec.StyleTips, "High-waisted bottoms and monochrome outfits elongate your frame")

	unparseable := styledUser()
	unparseable.Height = strRef("five foot five")
	rec = ProfileRecommendations(unparseable)
	assert.Equal(t, []string{"Invest in well-fitted basics before statement pieces"}, rec.StyleTips)
}

func TestProfileRecommendationsCountries(t *testing.T) {
	male := models.UserAccount{Gender: models.GenderMale, Country: strRef("Pakistan")}
	assert.Contains(t, ProfileRecommendations(male).CulturalWear, "Peshawari chappal")

	indian := models.UserAccount{Gender: models.GenderMale, Country: strRef("India")}
	assert.Contains(t, ProfileRecommendations(indian).CulturalWear, "Kurta pajama")

	abroad := models.UserAccount{Gender: models.GenderFemale, Country: strRef("Germany")}
	assert.Equal(t, []string{"Blend one traditional piece into an otherwise modern outfit"}, ProfileRecommendations(abroad).CulturalWear)

	// No country falls back to Pakistan
	unset := models.UserAccount{Gender: models.GenderFemale}
	assert.Contains(t, ProfileRecommendations(unset).CulturalWear, "Lawn suits for summer")
}

func TestProfileRecommendationsDefaults(t *testing.T) {
	rec := ProfileRecommendations(models.UserAccount{Gender: models.GenderOther, Country: strRef("Canada")})

	assert.Equal(t, []string{"navy", "white", "beige", "black"}, rec.Colors)
	assert.Equal(t, []string{"Straight-cut pieces in your exact size"}, rec.Silhouettes)
}
