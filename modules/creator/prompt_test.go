package creator

import (
	"strings"
	"testing"
)

func testProduct() ProductInfo {
	return ProductInfo{
		Name:           "Vitamin C Serum",
		Description:    "Brightening serum with 20% vitamin C",
		TargetAudience: "women 18-35",
		ProductType:    "skincare",
	}
}

func testCharacter() CharacterInfo {
	return CharacterInfo{
		Gender:    "female",
		Ethnicity: "Southeast Asian",
		SkinTone:  "tan",
		BodyType:  "slim",
	}
}

func TestProductAction(t *testing.T) {
	tests := []struct {
		productType string
		want        string
	}{
		{"skincare", "applying and demonstrating"},
		{"food", "tasting and enjoying"},
		{"tech", "unboxing and demonstrating features"},
		{"unknown-category", "naturally showcasing and holding"},
		{"", "naturally showcasing and holding"},
	}

	for _, tt := range tests {
		if got := ProductAction(tt.productType); got != tt.want {
			t.Errorf("ProductAction(%q) = %q, want %q", tt.productType, got, tt.want)
		}
	}
}

func TestBuildImagePromptDeterministic(t *testing.T) {
	product := testProduct()
	character := testCharacter()

	first := BuildImagePrompt(product, character)
	second := BuildImagePrompt(product, character)

	if first != second {
		t.Fatal("expected identical prompts for identical inputs")
	}
	if !strings.Contains(first, "applying and demonstrating Vitamin C Serum") {
		t.Errorf("prompt missing product action: %q", first)
	}
	if !strings.Contains(first, "female Thai creator, Southeast Asian, tan skin, slim build") {
		t.Errorf("prompt missing character descriptors: %q", first)
	}
}

func TestBuildImagePromptCaption(t *testing.T) {
	product := testProduct()
	character := testCharacter()

	without := BuildImagePrompt(product, character)
	if strings.Contains(without, "Text:") {
		t.Error("caption directive present while disabled")
	}

	character.Caption = Caption{Enabled: true, Text: "SALE 50%", Style: "bold", Position: "top"}
	with := BuildImagePrompt(product, character)
	if !strings.Contains(with, `Text: "SALE 50%" bold style, top.`) {
		t.Errorf("caption directive missing or malformed: %q", with)
	}

	character.Caption.Text = ""
	empty := BuildImagePrompt(product, character)
	if strings.Contains(empty, "Text:") {
		t.Error("caption directive present with empty text")
	}
}

func TestBuildVideoPromptClipBeats(t *testing.T) {
	product := testProduct()
	character := testCharacter()

	tests := []struct {
		name       string
		clip       int
		total      int
		wantBeat   string
		rejectBeat string
	}{
		{"first clip reveals", 1, 3, "excited face reveal", "thumbs up CTA"},
		{"middle clip demos", 2, 3, "applying and demonstrating, 3-6s: feature demo", "face reveal"},
		{"last clip closes", 3, 3, "thumbs up CTA", "feature demo"},
		{"single clip reveals", 1, 1, "excited face reveal", "thumbs up CTA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildVideoPrompt(product, character, tt.clip, tt.total, "")
			if !strings.Contains(got, tt.wantBeat) {
				t.Errorf("clip %d/%d missing beat %q:\n%s", tt.clip, tt.total, tt.wantBeat, got)
			}
			if strings.Contains(got, tt.rejectBeat) {
				t.Errorf("clip %d/%d carries wrong beat %q", tt.clip, tt.total, tt.rejectBeat)
			}
		})
	}
}

func TestBuildVideoPromptScriptExcerpt(t *testing.T) {
	product := testProduct()
	character := testCharacter()

	long := strings.Repeat("x", 300)
	got := BuildVideoPrompt(product, character, 1, 2, long)

	if !strings.Contains(got, "Script Context (Thai language)") {
		t.Fatal("script context missing")
	}
	if strings.Contains(got, strings.Repeat("x", 201)) {
		t.Error("script excerpt not truncated to 200 characters")
	}
	if !strings.Contains(got, strings.Repeat("x", 200)) {
		t.Error("script excerpt shorter than 200 characters")
	}

	without := BuildVideoPrompt(product, character, 1, 2, "")
	if strings.Contains(without, "Script Context") {
		t.Error("script context present with empty script")
	}
}

func TestBuildVideoPromptThaiScriptTruncation(t *testing.T) {
	product := testProduct()
	character := testCharacter()

	// Thai runes are three bytes each; truncation must not cut one
	// mid-rune, which would render as escape sequences under %q.
	thai := strings.Repeat("ส", 250)
	got := BuildVideoPrompt(product, character, 1, 2, thai)

	if strings.Contains(got, `\x`) {
		t.Errorf("excerpt cut mid-rune:\n%s", got)
	}
	if !strings.Contains(got, strings.Repeat("ส", 200)) {
		t.Error("excerpt shorter than 200 runes")
	}
	if strings.Contains(got, strings.Repeat("ส", 201)) {
		t.Error("excerpt longer than 200 runes")
	}
}

func TestBuildScriptPrompt(t *testing.T) {
	got := BuildScriptPrompt(testProduct())

	for _, want := range []string{
		`"Vitamin C Serum"`,
		`"Brightening serum with 20% vitamin C"`,
		`"women 18-35"`,
		"Part 1: [Text], Part 2: [Text]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("script prompt missing %q:\n%s", want, got)
		}
	}
}
