package config

// Persistent state keys (Registry)
const (
	KeyLocale    = "locale"
	KeyBookmarks = "bookmarks"
)
