package clients

import (
	"fmt"
	"net/url"
)

const avatarURLTemplate = "https://ui-avatars.com/api/?name=%s&background=random"

// AvatarURL derives a deterministic avatar image URL for a display name.
func AvatarURL(name string) string {
	return fmt.Sprintf(avatarURLTemplate, url.QueryEscape(name))
}
