package images

import (
	"net/url"
	"strconv"

	"github.com/inkwellapp/inkwell-server/internal/color"
	"github.com/inkwellapp/inkwell-server/internal/util"
)

// CoverURL is the image assigned to a post created without one, seeded by
// its title so the same title always gets the same picture.
func CoverURL(title string) string {
	return "https://picsum.photos/seed/" + url.PathEscape(util.HyphenateWhitespace(title)) + "/1200/600"
}

// CardCoverURL is shown on a post card whose image is missing.
func CardCoverURL(postID int64) string {
	return "https://picsum.photos/seed/fallback-" + strconv.FormatInt(postID, 10) + "/800/400"
}

// AvatarFallbackURL is an initials avatar for username, used when the
// generated avatar is unavailable.
func AvatarFallbackURL(username string) string {
	q := url.Values{}
	q.Set("name", username)
	q.Set("background", color.Hex(username))
	q.Set("color", "fff")
	return "https://ui-avatars.com/api/?" + q.Encode()
}
