package sessionserver

// Profile is the player identity returned by hasJoined.
type Profile struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Properties     []Property `json:"properties,omitempty"`
	ProfileActions []string   `json:"profileActions,omitempty"`
}

// Property is a signed profile property (e.g. "textures").
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// Texture returns the property named "textures", if present.
func (p Profile) Texture() (Property, bool) {
	for _, prop := range p.Properties {
		if prop.Name == "textures" {
			return prop, true
		}
	}
	return Property{}, false
}

type joinRequest struct {
	AccessToken     string `json:"accessToken"`
	SelectedProfile string `json:"selectedProfile"`
	ServerID        string `json:"serverId"`
}

// hasJoinedResponse keeps ID as a pointer so an absent "id" is distinguishable.
type hasJoinedResponse struct {
	ID             *string    `json:"id"`
	Name           string     `json:"name"`
	Properties     []Property `json:"properties"`
	ProfileActions []string   `json:"profileActions"`
}

type upstreamError struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}
