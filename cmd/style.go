package main

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/luca-patrignani/mental-santa/domain/santa"
)

func renderBanner() {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("M", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("ental ", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("S", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("anta", pterm.FgDarkGray.ToStyle()),
	).Render()
}

// participantName returns the name of the participant with the given id,
// falling back to the id itself.
func participantName(id int, names []string) string {
	if id >= 1 && id <= len(names) && names[id-1] != "" {
		return names[id-1]
	}
	return strconv.Itoa(id)
}

func giftLine(a santa.Assignment, names []string) string {
	return pterm.Sprintf("%s gives 🎁 to: %s", participantName(a.Giver, names), pterm.LightCyan(participantName(a.Recipient, names)))
}

func assignmentPanel(a santa.Assignment, names []string) string {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	return pbox.WithTitle(pterm.LightGreen("|YOUR DRAW|")).WithTitleTopCenter().Sprint(giftLine(a, names))
}

func revealTable(d santa.Derangement, names []string) pterm.TableData {
	data := pterm.TableData{{"Giver", "Recipient"}}
	for _, giver := range d.Givers() {
		data = append(data, []string{participantName(giver, names), participantName(d[giver], names)})
	}
	return data
}
