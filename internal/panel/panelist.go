package panel

// profile names a balanced default panelist persona; the Panel FSM assigns
// the first N (N = PanelSettings.MaxPanelists) to a discussion (§4.8
// "Preparing"). Order is meaningful: round-robin speaking order follows it.
type profile struct {
	id   int
	name string
}

// defaultProfiles is the balanced default profile set referenced by §4.8.
// Eight entries cover PanelSettings.MaxPanelists' documented ceiling.
var defaultProfiles = []profile{
	{id: 0, name: "Advocate"},
	{id: 1, name: "Skeptic"},
	{id: 2, name: "Pragmatist"},
	{id: 3, name: "Synthesizer"},
	{id: 4, name: "Domain Expert"},
	{id: 5, name: "Risk Analyst"},
	{id: 6, name: "User Advocate"},
	{id: 7, name: "Futurist"},
}

// Panelist is one LLM participant in a Panel discussion.
type Panelist struct {
	Index     int    `json:"index"`
	ProfileID int    `json:"profileId"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	SessionID string `json:"sessionId"`
}

// buildPanelists assigns the first n default profiles to panelists, selecting
// each one's model deterministically as profile.id % len(panelistModels), or
// primary when no panelist models are configured (§4.8 "Preparing").
func buildPanelists(n int, panelistModels []string, primary string, sessionID func(index int) string) []Panelist {
	if n > len(defaultProfiles) {
		n = len(defaultProfiles)
	}
	panelists := make([]Panelist, n)
	for i := 0; i < n; i++ {
		p := defaultProfiles[i]
		panelists[i] = Panelist{
			Index:     i,
			ProfileID: p.id,
			Name:      p.name,
			Model:     selectPanelistModel(p.id, panelistModels, primary),
			SessionID: sessionID(i),
		}
	}
	return panelists
}

func selectPanelistModel(profileID int, panelistModels []string, primary string) string {
	if len(panelistModels) == 0 {
		return primary
	}
	return panelistModels[profileID%len(panelistModels)]
}

func panelistByName(panelists []Panelist, name string) (Panelist, bool) {
	for _, p := range panelists {
		if p.Name == name {
			return p, true
		}
	}
	return Panelist{}, false
}

func panelistNames(panelists []Panelist) []string {
	names := make([]string, len(panelists))
	for i, p := range panelists {
		names[i] = p.Name
	}
	return names
}
