package player

import "strings"

// The cast endpoint reports a fatally incompatible player only through its
// error text. The known substrings live here, in one place, so the matching
// rule can change without touching session logic.
var incompatibleMarkers = []string{
	"no playable items found",
	"invalid media type",
}

// Incompatible reports whether err means the player cannot display photos
// at all, as opposed to a transient failure worth surfacing and retrying
// on a later run.
func Incompatible(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range incompatibleMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
