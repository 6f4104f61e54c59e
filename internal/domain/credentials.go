package domain

// Credentials identify this client against the France Travail token endpoint.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}
