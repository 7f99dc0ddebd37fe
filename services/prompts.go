package services

import (
	"fmt"
	"strings"

	"github.com/M2YTech/libaas-backend/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const OutfitSystemPrompt = "You are an expert personalized fashion stylist with deep knowledge of global and South Asian fashion, cultural dress codes, and modern styling. You provide detailed, practical outfit recommendations that are strictly tailored to the user's specific body shape, skin tone, height, and country context. IMPORTANT: Always return the response in valid JSON format."

const StyleInsightsSystemPrompt = "You are an expert fashion stylist. Always respond with valid JSON only."

const VisionSystemPrompt = "You are a fashion AI. Analyze the person's clothing style in this photo. Predict their preferred fashion style from these categories: ['Casual', 'Formal', 'Traditional (Desi)', 'Modern', 'Streetwear', 'Bohemian', 'Minimalist']. Return a JSON object with: 'top_label', 'top_confidence' (0.0-1.0), and 'all_predictions' (list of other likely styles with scores)."

const VisionUserPrompt = "Analyze this person's fashion style."

var titleCaser = cases.Title(language.English)

func orDefault(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}

const outfitPromptTemplate = `You are an expert fashion stylist AI.

TASK:
Generate %d complete outfit recommendations for a %s based in %s.
The outfits should be culturally appropriate for %s, stylish, and suitable for the event.

CRITICAL: YOU MUST CUSTOMIZE THE LOOKS FOR THIS USER:
- Gender: %s
- Body Shape: %s (Recommend cuts/fits that flatter this shape)
- Skin Tone: %s (Recommend colors that complement this tone)
- Height: %s (Recommend styles that suit this height)
- Country/Culture: %s (Ensure cultural appropriateness)

EVENT CONTEXT:
- Event Type: %s
- Venue: %s
- Time of Day: %s
- Weather: %s
- Theme: %s

OUTPUT INSTRUCTIONS:
- Provide specific advice on WHY this outfit works for their body shape/skin tone in the description.
- Be specific about fabrics (e.g., "Silk", "Cotton", "Jamawar").
- Be specific about colors (e.g., "Navy Blue" instead of just "Blue").

OUTPUT FORMAT (STRICT JSON):
{
  "outfits": [
    {
      "title": "Outfit Title",
      "description": "Description explaining why this works for a %s %s with %s skin in %s.",
      "top": {
        "item": "Name/Description of item",
        "details": ["detail1", "detail2"],
        "category": "top",
        "color": "specific color",
        "fabric": "specific fabric",
        "style": "specific style"
      },
      "layer": {
        "item": "Waistcoat or Shawl description (optional)",
        "details": ["..."],
        "category": "layer",
        "color": "...",
        "fabric": "...",
        "style": "..."
      },
      "bottom": {
        "item": "Trousers/Shalwar description",
        "details": ["..."],
        "category": "bottom",
        "color": "...",
        "fabric": "...",
        "style": "..."
      },
      "footwear": {
        "item": "Shoe description",
        "details": ["..."],
        "category": "footwear",
        "color": "...",
        "fabric": "...",
        "style": "..."
      },
      "accessories": {
        "items": ["Watch", "Cufflinks"]
      }
    }
  ]
}`

// BuildOutfitPrompt renders the chat prompt for event outfit generation.
// The same inputs always produce the same prompt.
func BuildOutfitPrompt(user models.UserAccount, in models.OutfitRequestIn) string {
	gender := string(user.Gender)
	if gender == "" {
		gender = "male"
	}
	bodyShape := orDefault(user.BodyShape, "Not specified")
	skinTone := orDefault(user.SkinTone, "Not specified")
	height := orDefault(user.Height, "Not specified")
	country := orDefault(user.Country, "Pakistan")

	return fmt.Sprintf(outfitPromptTemplate,
		in.NumLooks, gender, country, country,
		gender, bodyShape, skinTone, height, country,
		in.EventType, in.EventVenue, in.EventTime, in.Weather, in.Theme,
		bodyShape, gender, skinTone, country)
}

const styleInsightsPromptTemplate = `You are a professional fashion stylist and personal shopper. Generate personalized style insights for a user with the following profile:

%s

Provide a comprehensive style analysis in JSON format with these sections:

1. "summary": A warm, personalized 2-3 sentence overview of their style potential
2. "color_palette": Array of 5-6 recommended colors that complement their features (just color names)
3. "style_recommendations": Array of 3-4 specific style tips tailored to their body shape and preferences
4. "wardrobe_essentials": Array of 5-6 must-have clothing items for their profile
5. "fashion_dos": Array of 3 fashion do's specific to their body type
6. "fashion_donts": Array of 3 fashion don'ts to avoid
7. "cultural_tips": If country is provided, 1-2 sentences on incorporating local fashion trends

Keep recommendations practical, positive, and culturally sensitive. Focus on empowering the user.

Return ONLY valid JSON, no markdown formatting.`

// BuildStyleInsightsPrompt renders the chat prompt for persisted style insights.
func BuildStyleInsightsPrompt(user models.UserAccount) string {
	gender := string(user.Gender)
	if gender == "" {
		gender = "Not specified"
	}
	contextParts := []string{
		fmt.Sprintf("Gender: %s", titleCaser.String(gender)),
		fmt.Sprintf("Body Shape: %s", titleCaser.String(orDefault(user.BodyShape, "Not specified"))),
		fmt.Sprintf("Skin Tone: %s", titleCaser.String(orDefault(user.SkinTone, "Not specified"))),
		fmt.Sprintf("Location: %s", orDefault(user.Country, "Pakistan")),
		fmt.Sprintf("Height: %s", orDefault(user.Height, "Not specified")),
	}
	return fmt.Sprintf(styleInsightsPromptTemplate, strings.Join(contextParts, ", "))
}

// BuildImagePrompt flattens one normalized look into a text-to-image prompt.
func BuildImagePrompt(look OutfitLook, user models.UserAccount) string {
	gender := string(user.Gender)
	if gender == "" {
		gender = "male"
	}
	country := orDefault(user.Country, "Pakistan")

	personDesc := fmt.Sprintf("A well-groomed %s %s", country, gender)
	if user.BodyShape != nil && *user.BodyShape != "" {
		personDesc += fmt.Sprintf(" with %s build", *user.BodyShape)
	}
	if user.SkinTone != nil && *user.SkinTone != "" {
		personDesc += fmt.Sprintf(" and %s skin tone", *user.SkinTone)
	}

	promptParts := []string{personDesc}
	if part := sectionPromptPart("wearing", look.Top); part != "" {
		promptParts = append(promptParts, part)
	}
	if part := sectionPromptPart("with", look.Layer); part != "" {
		promptParts = append(promptParts, part)
	}
	if part := sectionPromptPart("paired with", look.Bottom); part != "" {
		promptParts = append(promptParts, part)
	}
	if part := sectionPromptPart("wearing", look.Footwear); part != "" {
		promptParts = append(promptParts, part)
	}
	if acc := look.Accessories; acc != nil && len(acc.Items) > 0 {
		promptParts = append(promptParts, fmt.Sprintf("accessorized with %s", strings.Join(acc.Items, ", ")))
	}
	promptParts = append(promptParts, fmt.Sprintf("cultural %s fashion, full body shot, professional photography, natural lighting, clean background", country))

	return strings.Join(promptParts, ", ")
}

func sectionPromptPart(verb string, section *OutfitSection) string {
	if section == nil || section.Item == "" {
		return ""
	}
	part := fmt.Sprintf("%s %s", verb, section.Item)
	if len(section.Details) > 0 {
		part += fmt.Sprintf(" (%s)", strings.Join(section.Details, ", "))
	}
	return part
}
