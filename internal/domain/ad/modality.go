package ad

import "strings"

type Modality string

const (
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
	ModalityText  Modality = "text"
)

func ParseModality(s string) (Modality, bool) {
	switch m := Modality(strings.ToLower(strings.TrimSpace(s))); m {
	case ModalityImage, ModalityVideo, ModalityText:
		return m, true
	default:
		return "", false
	}
}

var defaultCriteria = map[Modality][]string{
	ModalityImage: {
		"visual_attention_grab",
		"message_clarity",
		"emotional_engagement",
		"brand_recall",
		"health_appeal",
		"uniqueness",
	},
	ModalityVideo: {
		"hook_strength",
		"visual_attention_grab",
		"message_clarity",
		"emotional_engagement",
		"brand_recall",
		"pacing",
	},
	ModalityText: {
		"headline_impact",
		"message_clarity",
		"emotional_engagement",
		"call_to_action_strength",
		"brand_recall",
		"persuasiveness",
	},
}

// DefaultCriteria returns a copy of the criteria scored for modality m.
func DefaultCriteria(m Modality) []string {
	return append([]string(nil), defaultCriteria[m]...)
}

// HumanizeCriterion turns "message_clarity" into "message clarity".
func HumanizeCriterion(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

type Winner string

const (
	WinnerA Winner = "Ad A"
	WinnerB Winner = "Ad B"
)

func ParseWinner(s string) (Winner, bool) {
	switch w := Winner(strings.TrimSpace(s)); w {
	case WinnerA, WinnerB:
		return w, true
	default:
		return "", false
	}
}

// DecideWinner applies the tie rule: Ad A wins unless Ad B has a strictly higher total.
func DecideWinner(a, b ScoreSet) Winner {
	if a.Total >= b.Total {
		return WinnerA
	}
	return WinnerB
}
