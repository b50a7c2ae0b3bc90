/*
Package user holds the identity shown to the signed-in client.
*/
package user

// Identity is the profile of the signed-in user as the client sees it.
type Identity struct {
	// ID is the stable identifier issued by the identity provider.
	ID string `json:"id"`

	// DisplayName is the human-readable name chosen at registration.
	DisplayName string `json:"displayName"`

	// AvatarURL is the public avatar URL, empty when none was uploaded.
	AvatarURL string `json:"avatarUrl"`
}

// Clone returns a copy of id, or nil for a nil identity.
func (id *Identity) Clone() *Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
