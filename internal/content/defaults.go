package content

import (
	"fmt"
	"math/rand/v2"
)

const defaultAvatarCount = 8

// Defaults hands out the stock images served from the asset base URL.
type Defaults struct {
	BaseURL string
}

// Avatars lists every default avatar URL.
func (d Defaults) Avatars() []string {
	out := make([]string, defaultAvatarCount)
	for i := range out {
		out[i] = fmt.Sprintf("%s/avatars/default/%d.png", d.BaseURL, i+1)
	}
	return out
}

// RandomAvatar picks one of the default avatars.
func (d Defaults) RandomAvatar() string {
	return fmt.Sprintf("%s/avatars/default/%d.png", d.BaseURL, rand.IntN(defaultAvatarCount)+1)
}

// CategoryIcon is the icon given to categories created without one.
func (d Defaults) CategoryIcon() string {
	return d.BaseURL + "/category_icons/default.png"
}
