package core

import "strings"

// AdapterID identifies the CSS-in-JS library a page was rendered with. It is
// sent to the client as the ssrid query parameter of the hydration script.
type AdapterID string

const (
	AdapterDefault          AdapterID = "default"
	AdapterMaterialUI       AdapterID = "material-ui"
	AdapterEmotion          AdapterID = "emotion"
	AdapterStyledComponents AdapterID = "styled-components"
)

type detectionRule struct {
	marker  string
	adapter AdapterID
}

// Rules are all evaluated and a later match overwrites an earlier one, so a
// page carrying several markers is classified by the last rule it matches.
var detectionRules = []detectionRule{
	{marker: `"mui`, adapter: AdapterMaterialUI},
	{marker: `data-emotion-css`, adapter: AdapterEmotion},
	{marker: `"views__`, adapter: AdapterStyledComponents},
}

func DetectAdapter(markup string) AdapterID {
	lower := strings.ToLower(markup)

	id := AdapterDefault
	for _, rule := range detectionRules {
		if strings.Contains(lower, rule.marker) {
			id = rule.adapter
		}
	}
	return id
}

// HasDocument reports whether markup already carries its own <html> element.
func HasDocument(markup string) bool {
	return strings.Contains(strings.ToLower(markup), "<html")
}
