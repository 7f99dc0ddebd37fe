package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/M2YTech/libaas-backend/models"
)

var eventDescriptions = map[string]string{
	"wedding":  "Perfect for a wedding celebration",
	"mehndi":   "Vibrant and festive for a mehndi ceremony",
	"cultural": "Elegantly traditional for a cultural event",
	"office":   "Professional and polished for the workplace",
	"casual":   "Comfortable and stylish for everyday wear",
	"party":    "Eye-catching and fun for a party",
	"formal":   "Sophisticated and elegant for a formal occasion",
}

// EventDescription maps an event type to its stock description line.
func EventDescription(eventType string) string {
	if description, found := eventDescriptions[strings.ToLower(eventType)]; found {
		return description
	}
	return "Perfect for any occasion"
}

type wardrobeBuckets struct {
	tops        []models.WardrobeItem
	layers      []models.WardrobeItem
	bottoms     []models.WardrobeItem
	footwear    []models.WardrobeItem
	accessories []models.WardrobeItem
}

func bucketWardrobe(items []models.WardrobeItem) wardrobeBuckets {
	var buckets wardrobeBuckets
	for _, item := range items {
		category := strings.ToLower(item.Category + " " + item.SubCategory)
		switch {
		case containsAny(category, "layer", "jacket", "coat", "waistcoat", "shawl", "blazer"):
			buckets.layers = append(buckets.layers, item)
		case containsAny(category, "top", "shirt", "kurta", "blouse", "tee"):
			buckets.tops = append(buckets.tops, item)
		case containsAny(category, "bottom", "trouser", "jean", "pant", "shalwar", "skirt"):
			buckets.bottoms = append(buckets.bottoms, item)
		case containsAny(category, "footwear", "shoe", "sandal", "sneaker", "khussa"):
			buckets.footwear = append(buckets.footwear, item)
		case containsAny(category, "accessor", "watch", "jewel", "belt", "scarf"):
			buckets.accessories = append(buckets.accessories, item)
		}
	}
	return buckets
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func pickItem(bucket []models.WardrobeItem, lookIndex int) *models.WardrobeItem {
	if len(bucket) == 0 {
		return nil
	}
	return &bucket[lookIndex%len(bucket)]
}

func itemSection(item *models.WardrobeItem) *OutfitSection {
	if item == nil {
		return nil
	}
	details := []string{}
	for _, detail := range []string{item.Color, item.Style, item.Pattern} {
		if detail != "" && detail != "unknown" {
			details = append(details, detail)
		}
	}
	return &OutfitSection{Item: item.Name, Details: details}
}

// BuildFallbackLooks assembles looks from the wardrobe itself when the
// provider is unavailable. Same wardrobe and event always give the same
// looks, so clients can cache against them.
func BuildFallbackLooks(user models.UserAccount, items []models.WardrobeItem, eventType string, numLooks int) []OutfitLook {
	if numLooks <= 0 {
		numLooks = 3
	}
	buckets := bucketWardrobe(items)

	looks := make([]OutfitLook, 0, numLooks)
	for idx := 0; idx < numLooks; idx++ {
		top := pickItem(buckets.tops, idx)
		layer := pickItem(buckets.layers, idx)
		bottom := pickItem(buckets.bottoms, idx)
		footwear := pickItem(buckets.footwear, idx)

		look := OutfitLook{
			ID:    idx + 1,
			Title: fmt.Sprintf("%s Look %d", titleCaser.String(eventType), idx+1),
			OutfitSections: OutfitSections{
				Top:      itemSection(top),
				Layer:    itemSection(layer),
				Bottom:   itemSection(bottom),
				Footwear: itemSection(footwear),
			},
		}
		if accessory := pickItem(buckets.accessories, idx); accessory != nil {
			look.Accessories = &AccessoryList{Items: []string{accessory.Name}}
		}
		look.Description = fallbackLookDescription(user, eventType, top)
		look.FullTextPrompt = BuildImagePrompt(look, user)
		looks = append(looks, look)
	}
	return looks
}

func fallbackLookDescription(user models.UserAccount, eventType string, top *models.WardrobeItem) string {
	parts := []string{EventDescription(eventType)}

	if user.BodyShape != nil && *user.BodyShape != "" {
		parts = append(parts, fmt.Sprintf("This ensemble flatters your %s silhouette", titleCaser.String(*user.BodyShape)))
	}

	primaryColor := ""
	style := ""
	if top != nil {
		if top.Color != "" && top.Color != "unknown" {
			primaryColor = titleCaser.String(top.Color)
		}
		if top.Style != "" {
			style = titleCaser.String(top.Style)
		}
	}
	if user.SkinTone != nil && *user.SkinTone != "" && primaryColor != "" {
		parts = append(parts, fmt.Sprintf("featuring %s tones that complement your %s complexion", primaryColor, titleCaser.String(*user.SkinTone)))
	} else if primaryColor != "" {
		parts = append(parts, fmt.Sprintf("featuring beautiful %s tones", primaryColor))
	}
	if style != "" {
		parts = append(parts, fmt.Sprintf("The %s style adds the perfect finishing touch", style))
	}

	return strings.Join(parts, ". ") + "."
}

type ProfileRecommendation struct {
	Colors       []string `json:"colors"`
	Silhouettes  []string `json:"silhouettes"`
	StyleTips    []string `json:"style_tips"`
	CulturalWear []string `json:"cultural_wear"`
}

// ProfileRecommendations derives starter advice from the profile fields
// alone, without a provider call, so the profile page always has content
// even before the first style-insights run.
func ProfileRecommendations(user models.UserAccount) ProfileRecommendation {
	rec := ProfileRecommendation{
		Colors:       colorsForSkinTone(user.SkinTone),
		Silhouettes:  silhouettesForBodyShape(user.BodyShape),
		StyleTips:    []string{},
		CulturalWear: []string{},
	}

	if user.Height != nil {
		if tip := tipForHeight(*user.Height); tip != "" {
			rec.StyleTips = append(rec.StyleTips, tip)
		}
	}
	rec.StyleTips = append(rec.StyleTips, "Invest in well-fitted basics before statement pieces")

	country := strings.ToLower(orDefault(user.Country, "Pakistan"))
	switch {
	case strings.Contains(country, "pakistan"):
		if user.Gender == models.GenderFemale {
			rec.CulturalWear = append(rec.CulturalWear, "Embroidered kurta with cigarette pants", "Lawn suits for summer", "Khussa flats")
		} else {
			rec.CulturalWear = append(rec.CulturalWear, "Kurta shalwar in breathable cotton", "Waistcoat over kurta for events", "Peshawari chappal")
		}
	case strings.Contains(country, "india"):
		if user.Gender == models.GenderFemale {
			rec.CulturalWear = append(rec.CulturalWear, "Saree or lehenga for festive occasions", "Anarkali suits", "Juttis")
		} else {
			rec.CulturalWear = append(rec.CulturalWear, "Kurta pajama", "Nehru jacket layering", "Mojari shoes")
		}
	default:
		rec.CulturalWear = append(rec.CulturalWear, "Blend one traditional piece into an otherwise modern outfit")
	}

	return rec
}

func colorsForSkinTone(skinTone *string) []string {
	if skinTone == nil {
		return []string{"navy", "white", "beige", "black"}
	}
	tone := strings.ToLower(*skinTone)
	switch {
	case containsAny(tone, "fair", "light", "pale"):
		return []string{"navy", "emerald", "burgundy", "soft pink", "charcoal"}
	case containsAny(tone, "wheat", "medium", "olive", "tan"):
		return []string{"olive", "rust", "mustard", "teal", "cream"}
	case containsAny(tone, "dark", "deep", "dusky", "brown"):
		return []string{"white", "cobalt", "coral", "gold", "bright green"}
	}
	return []string{"navy", "white", "beige", "black"}
}

func silhouettesForBodyShape(bodyShape *string) []string {
	if bodyShape == nil {
		return []string{"Straight-cut pieces in your exact size"}
	}
	shape := strings.ToLower(*bodyShape)
	switch {
	case containsAny(shape, "hourglass"):
		return []string{"Fitted waists", "Wrap styles", "High-waisted bottoms"}
	case containsAny(shape, "pear", "triangle"):
		return []string{"Structured shoulders", "A-line cuts", "Boat necklines"}
	case containsAny(shape, "apple", "round"):
		return []string{"Empire lines", "Open necklines", "Straight-leg trousers"}
	case containsAny(shape, "rectangle", "athletic"):
		return []string{"Layered looks", "Belted waists", "Textured fabrics"}
	}
	return []string{"Straight-cut pieces in your exact size"}
}

func tipForHeight(height string) string {
	value, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(height, "cm")))
	if err != nil {
		return ""
	}
	if value >= 175 {
		return "Longline coats and wide-leg trousers carry your height well"
	}
	if value > 0 && value < 160 {
		return "High-waisted bottoms and monochrome outfits elongate your frame"
	}
	return ""
}
