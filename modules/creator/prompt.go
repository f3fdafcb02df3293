package creator

import "fmt"

// productActions maps a product category onto the action the creator
// performs with it on camera.
var productActions = map[string]string{
	"skincare":   "applying and demonstrating",
	"beauty":     "applying and showing results",
	"supplement": "unboxing and presenting",
	"food":       "tasting and enjoying",
	"fashion":    "wearing and styling",
	"tech":       "unboxing and demonstrating features",
	"home":       "demonstrating usage",
}

const defaultProductAction = "naturally showcasing and holding"

// ProductAction resolves the category action verb with a generic default.
func ProductAction(productType string) string {
	if action, ok := productActions[productType]; ok {
		return action
	}
	return defaultProductAction
}

// BuildImagePrompt assembles the candidate-photo instruction. Output is
// deterministic for identical inputs.
func BuildImagePrompt(product ProductInfo, character CharacterInfo) string {
	action := ProductAction(product.ProductType)

	prompt := fmt.Sprintf(`UGC TikTok product photo: %s Thai creator, %s, %s skin, %s build, age 25-30, genuine smile, eye contact.

Action: %s %s, product at chest level.

Setting: Modern Thai home, daylight, minimal decor, plants. Lighting: soft window light, golden hour. Camera: iPhone 15 Pro, 9:16, bokeh. Mood: friendly, trustworthy. Quality: photorealistic, natural colors.`,
		character.Gender, character.Ethnicity, character.SkinTone, character.BodyType,
		action, product.Name)

	if character.Caption.Enabled && character.Caption.Text != "" {
		prompt += fmt.Sprintf("\n\nText: %q %s style, %s.",
			character.Caption.Text, character.Caption.Style, character.Caption.Position)
	}

	return prompt
}

// BuildVideoPrompt assembles the per-clip instruction. The narrative
// beat depends on clip position: first clip reveals, last clip closes
// with a call to action, middle clips demonstrate features. A 200
// character script excerpt rides along as a lip-sync hint.
func BuildVideoPrompt(product ProductInfo, character CharacterInfo, clipNumber, totalClips int, script string) string {
	action := ProductAction(product.ProductType)

	var focus string
	switch {
	case clipNumber == 1:
		focus = "0-2s: excited face reveal, 2-5s: pick up product, 5-8s: smile transition"
	case clipNumber == totalClips:
		focus = "0-3s: show results, 3-6s: product to camera, 6-8s: thumbs up CTA"
	default:
		focus = fmt.Sprintf("0-3s: %s, 3-6s: feature demo, 6-8s: satisfied expression", action)
	}

	prompt := fmt.Sprintf(`UGC TikTok video: %s Thai creator, %s, %s skin, age 25-30. Modern Thai home, daylight, 9:16.

Sequence: %s

Performance: natural energy, 70%% eye contact, smooth hands. Camera: gentle push-in, handheld stable. Lighting: golden hour warmth. Pacing: TikTok-style quick cuts. Quality: 4K photorealistic.

Thai market: Gen Z style, authentic vibe, relatable to 18-35.`,
		character.Gender, character.Ethnicity, character.SkinTone, focus)

	if script != "" {
		// Truncate on rune boundaries; Thai scripts are multi-byte.
		excerpt := script
		if runes := []rune(excerpt); len(runes) > 200 {
			excerpt = string(runes[:200])
		}
		prompt += fmt.Sprintf("\n\nScript Context (Thai language): %q\nThe creator should appear to be speaking this Thai script naturally. Lip movements and expressions should match the tone and energy of the script.", excerpt)
	}

	return prompt
}

// BuildScriptPrompt assembles the text-model instruction for the UGC script.
func BuildScriptPrompt(product ProductInfo) string {
	return fmt.Sprintf(`Write a short, catchy TikTok/UGC video script for a product named %q.
  Product Description: %q.
  Target Audience: %q.
  Keep it under 30 seconds. Split it into 2-3 short, punchy parts suitable for a fast-paced video.
  Format it like: Part 1: [Text], Part 2: [Text]`,
		product.Name, product.Description, product.TargetAudience)
}
