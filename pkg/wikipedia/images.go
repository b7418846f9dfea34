package wikipedia

import "strings"

var (
	badExtensions = []string{".svg", ".gif", ".tif", ".ogv", ".ogg", ".webm", ".pdf"}

	badKeywords = []string{
		"logo", "icon", "flag", "coat of arms", "coat_of_arms", "wappen", "insignia",
		"map", "locator", "plan", "diagram", "chart", "graph",
		"stub", "placeholder", "missing",
		"signature", "commons-logo", "wikidata",
	}
)

// isUnwantedImage reports whether a file name or URL looks like a vector
// graphic, an icon, a map or other decoration rather than a photo.
func isUnwantedImage(name string) bool {
	lower := strings.ToLower(name)

	for _, ext := range badExtensions {
		// also catches rendered variants like "x.svg.png"
		if strings.Contains(lower, ext) {
			return true
		}
	}

	for _, kw := range badKeywords {
		if !strings.Contains(lower, kw) {
			continue
		}
		if kw == "map" && strings.Contains(lower, "maple") {
			continue
		}
		if kw == "plan" && strings.Contains(lower, "planet") {
			continue
		}
		return true
	}
	return false
}
