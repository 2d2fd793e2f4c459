// Package models defines client-side session data.
package models

import "strings"

// DefaultDisplayName is shown when the stored profile carries no name at all.
const DefaultDisplayName = "Workshop"

// Profile is the signed-in user as returned by the login and who-am-I calls.
// It is persisted as JSON in the "user" slot.
type Profile struct {
	ID           int64  `json:"id"`
	Username     string `json:"username,omitempty"`
	Name         string `json:"name,omitempty"`
	WorkshopName string `json:"workshop_name,omitempty"`
}

// DisplayName picks the first non-blank of workshop name, username and name.
func (p Profile) DisplayName() string {
	for _, s := range []string{p.WorkshopName, p.Username, p.Name} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return DefaultDisplayName
}

// Credential is the token pair plus the profile it was issued for.
// A credential missing either token half is not a credential.
type Credential struct {
	AccessToken  string
	RefreshToken string
	User         Profile
}

// Complete reports whether both token halves are present.
func (c *Credential) Complete() bool {
	return c != nil && c.AccessToken != "" && c.RefreshToken != ""
}

// DemoSession is the legacy demo login: a placeholder token and a workshop
// name typed on the demo login form. It never authenticates real routes.
type DemoSession struct {
	Token string
	Name  string
}

// Complete reports whether both demo slots are filled.
func (d *DemoSession) Complete() bool {
	return d != nil && d.Token != "" && d.Name != ""
}
