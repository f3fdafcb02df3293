package comic

import (
	"fmt"
	"strings"
)

// BuildComicPrompt assembles the single-image instruction: one picture
// carrying every panel of the strip, with all visible text in Thai.
func BuildComicPrompt(layout Layout, style ArtStyle, colorKeywords string, characters []Character, panels []Panel) string {
	cast := "Create appropriate characters for this story"
	if len(characters) > 0 {
		descs := make([]string, 0, len(characters))
		for _, c := range characters {
			descs = append(descs, fmt.Sprintf("%s (%s)", c.Name, c.Description))
		}
		cast = strings.Join(descs, ", ")
	}

	var scenes strings.Builder
	for i, panel := range panels {
		if i > 0 {
			scenes.WriteString("\n\n")
		}
		fmt.Fprintf(&scenes, "Panel %d: %s", i+1, panel.Prompt)
	}

	readingOrder := "Standard reading order (left to right)"
	if layout.MangaOrder {
		readingOrder = "Manga reading order (right to left)"
	}

	return fmt.Sprintf(`Create a complete comic strip as a SINGLE IMAGE with %d panels.

LAYOUT: %s

ART STYLE: %s
COLOR: %s

CHARACTERS: %s

STORY PANELS:
%s

CRITICAL TEXT REQUIREMENTS:
- ALL text in speech bubbles MUST be in THAI language (ภาษาไทย) ONLY
- ALL dialogue MUST be in THAI language (ภาษาไทย) ONLY
- ALL sound effects MUST use THAI onomatopoeia (e.g., "ปัง!" not "BANG!", "โครม!" not "CRASH!")
- NO English words allowed anywhere in the comic
- Use clear, readable Thai fonts for all text

TECHNICAL REQUIREMENTS:
- This must be a SINGLE IMAGE containing all %d panels
- Each panel should be clearly separated with borders/gutters
- %s
- Maintain consistent character design across ALL panels
- %s
- Expressive character poses and exaggerated reactions for comedic effect
- Include visual comedy elements (sweat drops, shock lines, speed lines)
- Keep backgrounds simple but supportive

CRITICAL: Generate this as ONE COMPLETE IMAGE with all panels arranged as specified, NOT as separate images.`,
		layout.Panels, layout.Arrangement, style.Keywords, colorKeywords,
		cast, scenes.String(), layout.Panels, layout.Arrangement, readingOrder)
}

// BuildBreakdownPrompt asks the text model to split a story idea into
// per-panel scene descriptions, one numbered line each.
func BuildBreakdownPrompt(story string, numPanels int, characters []Character) string {
	cast := ""
	if len(characters) > 0 {
		names := make([]string, 0, len(characters))
		for _, c := range characters {
			names = append(names, fmt.Sprintf("%s (%s)", c.Name, c.Description))
		}
		cast = fmt.Sprintf("\nCharacters available: %s.", strings.Join(names, ", "))
	}

	return fmt.Sprintf(`Break this story into exactly %d comic panels: %q.%s
Each panel is one visual scene: describe what happens, who is in frame and the emotion. Keep each description under 30 words.
Answer with exactly %d lines, formatted:
Panel 1: [scene]
Panel 2: [scene]`, numPanels, story, cast, numPanels)
}

// CharacterSheetPrompt is the fixed reference-sheet instruction a new
// cast member's portrait is generated with.
func CharacterSheetPrompt(description string) string {
	return fmt.Sprintf("Character reference sheet: %s. Full body character design, clean white background, front view, standing pose, detailed features, consistent design for comic/cartoon use. High quality illustration.", description)
}
