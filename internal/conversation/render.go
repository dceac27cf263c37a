package conversation

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/quoteline/autobody-ai-platform/internal/estimate"
	"github.com/quoteline/autobody-ai-platform/internal/slots"
)

var usd = message.NewPrinter(language.English)

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

// renderIntro is the generic instructions reply.
func renderIntro(shopName string) string {
	lines := []string{
		fmt.Sprintf("Thanks for messaging %s! 👋", shopName),
		"",
		"Send 1–5 photos of the damage for an instant AI estimate.",
	}
	return strings.Join(lines, "\n")
}

// renderConfirmation names the chosen appointment time.
func renderConfirmation(chosen slots.Slot) string {
	return fmt.Sprintf("Your appointment is booked for %s.", chosen.Label())
}

// renderEstimate formats the damage summary followed by the numbered slot
// list and a selection prompt.
func renderEstimate(shopName string, est estimate.Estimate, offered []slots.Slot) string {
	areas := "General Damage"
	if len(est.DamageAreas) > 0 {
		areas = strings.Join(est.DamageAreas, ", ")
	}
	types := "Unspecified"
	if len(est.DamageTypes) > 0 {
		types = strings.Join(est.DamageTypes, ", ")
	}
	costRange := usd.Sprintf("$%.0f – $%.0f", est.MinCost, est.MaxCost)

	lines := []string{
		fmt.Sprintf("🔎 AI Damage Estimate for %s", shopName),
		fmt.Sprintf("Severity: %s", est.Severity),
		fmt.Sprintf("Damaged Areas: %s", areas),
		fmt.Sprintf("Damage Types: %s", types),
		fmt.Sprintf("Estimated Cost: %s", costRange),
		fmt.Sprintf("Confidence: %.2f", est.Confidence),
		"",
		"Reply with a number to book an in-person estimate:",
	}
	for i, slot := range offered {
		lines = append(lines, fmt.Sprintf("%d) %s", i+1, slot.Label()))
	}
	return strings.Join(lines, "\n")
}
