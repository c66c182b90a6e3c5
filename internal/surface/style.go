package surface

import (
	"github.com/stateful/canvas/internal/glossary"
	"github.com/stateful/canvas/pkg/document"
)

var calloutColors = map[document.CalloutColor]string{
	document.CalloutBlue:   "#3B82F6",
	document.CalloutGreen:  "#22C55E",
	document.CalloutYellow: "#EAB308",
	document.CalloutRed:    "#EF4444",
	document.CalloutPurple: "#A855F7",
}

// CalloutHex returns the accent color of a callout.
func CalloutHex(color document.CalloutColor) string {
	if hex, ok := calloutColors[color]; ok {
		return hex
	}
	return calloutColors[document.CalloutBlue]
}

var masteryColors = map[string]string{
	glossary.MasteryNew:      "#E06C75",
	glossary.MasteryLearning: "#D19A66",
	glossary.MasteryReview:   "#61AFEF",
	glossary.MasteryMastered: "#98C379",
}

// MasteryHex returns the color a keyword tag is drawn in.
func MasteryHex(level string) string {
	if hex, ok := masteryColors[level]; ok {
		return hex
	}
	return masteryColors[glossary.MasteryNew]
}
