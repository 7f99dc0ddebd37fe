package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/M2YTech/libaas-backend/models"
)

const (
	InsightsParseFallbackSummary    = "We're having trouble generating insights right now. Please try again later."
	InsightsProviderFallbackSummary = "Unable to generate insights at this time."
)

// StyleInsights is the persisted style analysis of one profile.
type StyleInsights struct {
	Summary              string   `json:"summary"`
	ColorPalette         []string `json:"color_palette"`
	StyleRecommendations []string `json:"style_recommendations"`
	WardrobeEssentials   []string `json:"wardrobe_essentials"`
	FashionDos           []string `json:"fashion_dos"`
	FashionDonts         []string `json:"fashion_donts"`
	CulturalTips         string   `json:"cultural_tips"`
}

type OutfitSection struct {
	Item    string   `json:"item"`
	Details []string `json:"details"`
}

type AccessoryList struct {
	Items []string `json:"items"`
}

type OutfitSections struct {
	Top         *OutfitSection `json:"top,omitempty"`
	Layer       *OutfitSection `json:"layer,omitempty"`
	Bottom      *OutfitSection `json:"bottom,omitempty"`
	Footwear    *OutfitSection `json:"footwear,omitempty"`
	Accessories *AccessoryList `json:"accessories,omitempty"`
}

// OutfitLook is one normalized outfit recommendation. MalformedSections names
// the sections whose provider value was not an object and got replaced with
// an empty default, so clients can tell a dropped section from an empty one.
type OutfitLook struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OutfitSections
	MalformedSections []string `json:"malformed_sections,omitempty"`
	FullTextPrompt    string   `json:"full_text_prompt"`
}

// VisionResult is the stored outcome of a profile photo analysis.
type VisionResult struct {
	TopLabel       string                   `json:"top_label"`
	TopConfidence  float64                  `json:"top_confidence"`
	AllPredictions []map[string]interface{} `json:"all_predictions"`
	Source         string                   `json:"source,omitempty"`
	Error          string                   `json:"error,omitempty"`
}

// StripMarkdownFences removes a leading ```json or ``` fence and a trailing
// ``` fence. Applying it to already clean text returns the text unchanged.
func StripMarkdownFences(text string) string {
	content := strings.TrimSpace(text)
	if strings.HasPrefix(content, "```json") {
		content = content[7:]
	}
	if strings.HasPrefix(content, "```") {
		content = content[3:]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-3]
	}
	return strings.TrimSpace(content)
}

// FallbackStyleInsights is the typed default shown when generation fails.
func FallbackStyleInsights(summary string) StyleInsights {
	return StyleInsights{
		Summary:              summary,
		ColorPalette:         []string{},
		StyleRecommendations: []string{},
		WardrobeEssentials:   []string{},
		FashionDos:           []string{},
		FashionDonts:         []string{},
		CulturalTips:         "",
	}
}

// NormalizeStyleInsights parses a provider reply into StyleInsights. Missing
// keys keep their empty defaults, keys of the wrong shape are defaulted and
// reported in malformed. ok is false only when the payload is not a JSON
// object at all.
func NormalizeStyleInsights(raw string) (insights StyleInsights, malformed []string, ok bool) {
	insights = FallbackStyleInsights("")

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripMarkdownFences(raw)), &fields); err != nil {
		return insights, nil, false
	}

	decodeStringField(fields, "summary", &insights.Summary, &malformed)
	decodeStringListField(fields, "color_palette", &insights.ColorPalette, &malformed)
	decodeStringListField(fields, "style_recommendations", &insights.StyleRecommendations, &malformed)
	decodeStringListField(fields, "wardrobe_essentials", &insights.WardrobeEssentials, &malformed)
	decodeStringListField(fields, "fashion_dos", &insights.FashionDos, &malformed)
	decodeStringListField(fields, "fashion_donts", &insights.FashionDonts, &malformed)
	decodeStringField(fields, "cultural_tips", &insights.CulturalTips, &malformed)

	return insights, malformed, true
}

func decodeStringField(fields map[string]json.RawMessage, key string, target *string, malformed *[]string) {
	raw, present := fields[key]
	if !present {
		return
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		*malformed = append(*malformed, key)
		return
	}
	*target = value
}

func decodeStringListField(fields map[string]json.RawMessage, key string, target *[]string, malformed *[]string) {
	raw, present := fields[key]
	if !present {
		return
	}
	var value []string
	if err := json.Unmarshal(raw, &value); err != nil {
		*malformed = append(*malformed, key)
		return
	}
	if value == nil {
		value = []string{}
	}
	*target = value
}

// NormalizeOutfits parses a provider reply into ordered looks with 1-based
// ids. ok is false when the payload is unusable or carries no outfits, so
// the caller can switch to the rule-based fallback.
func NormalizeOutfits(raw string, user models.UserAccount) (looks []OutfitLook, ok bool) {
	var envelope struct {
		Outfits []map[string]json.RawMessage `json:"outfits"`
	}
	if err := json.Unmarshal([]byte(StripMarkdownFences(raw)), &envelope); err != nil {
		return nil, false
	}
	if len(envelope.Outfits) == 0 {
		return nil, false
	}

	looks = make([]OutfitLook, 0, len(envelope.Outfits))
	for idx, rawOutfit := range envelope.Outfits {
		look := OutfitLook{
			ID:    idx + 1,
			Title: fmt.Sprintf("Look %d", idx+1),
		}
		decodeStringField(rawOutfit, "title", &look.Title, &look.MalformedSections)
		decodeStringField(rawOutfit, "description", &look.Description, &look.MalformedSections)
		look.Top = decodeOutfitSection(rawOutfit, "top", &look.MalformedSections)
		look.Layer = decodeOutfitSection(rawOutfit, "layer", &look.MalformedSections)
		look.Bottom = decodeOutfitSection(rawOutfit, "bottom", &look.MalformedSections)
		look.Footwear = decodeOutfitSection(rawOutfit, "footwear", &look.MalformedSections)
		look.Accessories = decodeAccessories(rawOutfit, &look.MalformedSections)
		look.FullTextPrompt = BuildImagePrompt(look, user)
		looks = append(looks, look)
	}
	return looks, true
}

func decodeOutfitSection(fields map[string]json.RawMessage, key string, malformed *[]string) *OutfitSection {
	raw, present := fields[key]
	if !present || string(raw) == "null" {
		return nil
	}
	var section OutfitSection
	if err := json.Unmarshal(raw, &section); err != nil {
		*malformed = append(*malformed, key)
		return &OutfitSection{Details: []string{}}
	}
	if section.Details == nil {
		section.Details = []string{}
	}
	return &section
}

func decodeAccessories(fields map[string]json.RawMessage, malformed *[]string) *AccessoryList {
	raw, present := fields["accessories"]
	if !present || string(raw) == "null" {
		return nil
	}
	var accessories AccessoryList
	if err := json.Unmarshal(raw, &accessories); err != nil {
		*malformed = append(*malformed, "accessories")
		return &AccessoryList{Items: []string{}}
	}
	if accessories.Items == nil {
		accessories.Items = []string{}
	}
	return &accessories
}

// NormalizeVisionResult parses a photo analysis reply. Unusable payloads
// return the unknown default with ok false so the task can retry.
func NormalizeVisionResult(raw string, source string) (result VisionResult, ok bool) {
	result = VisionResult{
		TopLabel:       "unknown",
		TopConfidence:  0.0,
		AllPredictions: []map[string]interface{}{},
		Source:         source,
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripMarkdownFences(raw)), &fields); err != nil {
		return result, false
	}

	if raw, present := fields["top_label"]; present {
		var label string
		if err := json.Unmarshal(raw, &label); err == nil {
			result.TopLabel = label
		}
	}
	if raw, present := fields["top_confidence"]; present {
		var confidence float64
		if err := json.Unmarshal(raw, &confidence); err == nil {
			result.TopConfidence = confidence
		}
	}
	if raw, present := fields["all_predictions"]; present {
		var predictions []map[string]interface{}
		if err := json.Unmarshal(raw, &predictions); err == nil && predictions != nil {
			result.AllPredictions = predictions
		}
	}
	return result, true
}
