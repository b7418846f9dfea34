package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:"configs/wikiroam.yaml"`
	Locale  string `long:"locale" description:"Wikipedia language code, overrides the config file"`
	Timeout string `long:"timeout" description:"Give up after this long (e.g., 30s, 2m)" default:"30s"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// NearbyCommand searches the articles around a map view.
type NearbyCommand struct {
	Lat     float64 `long:"lat" description:"Latitude of the map center" required:"true"`
	Lon     float64 `long:"lon" description:"Longitude of the map center" required:"true"`
	Zoom    float64 `long:"zoom" description:"Map zoom level" default:"13"`
	Width   int     `long:"width" description:"Viewport width in pixels" default:"1024"`
	Height  int     `long:"height" description:"Viewport height in pixels" default:"768"`
	GeoJSON bool    `long:"geojson" description:"Print the markers as a GeoJSON FeatureCollection"`

	globals *GlobalFlags
	version string
}

// DetailCommand opens the details panel of one article.
type DetailCommand struct {
	ID     int64 `long:"id" description:"Article page ID (required)"`
	Images bool  `long:"images" description:"Also list the article's gallery"`

	globals *GlobalFlags
	version string
}

// SearchCommand finds a place by name and flies to it.
type SearchCommand struct {
	Nearby bool `long:"nearby" description:"List the articles around the match"`

	globals *GlobalFlags
	version string
}

// DiscoverCommand picks random destinations from a theme.
type DiscoverCommand struct {
	List  bool `long:"list" description:"List the available themes"`
	Count int  `long:"count" description:"Number of destinations to pick" default:"1"`

	globals *GlobalFlags
	version string
}

// BookmarkCommand groups the bookmark subcommands.
type BookmarkCommand struct{}

// BookmarkToggleCommand adds or removes an article from the bookmarks.
type BookmarkToggleCommand struct {
	ID int64 `long:"id" description:"Article page ID (required)"`

	globals *GlobalFlags
	version string
}

// BookmarkListCommand prints the saved bookmarks.
type BookmarkListCommand struct {
	JSON bool `long:"json" description:"Output in JSON format"`

	globals *GlobalFlags
	version string
}

// CacheCommand inspects or prunes the response cache.
type CacheCommand struct {
	Prefix    string `long:"prefix" description:"Only keys starting with this prefix"`
	OlderThan string `long:"prune-older-than" description:"Delete entries older than this age (e.g., 7d)"`

	globals *GlobalFlags
	version string
}

// LocaleCommand shows or saves the default Wikipedia language.
type LocaleCommand struct {
	Reset bool `long:"reset" description:"Forget the saved language and use the config file's"`

	globals *GlobalFlags
	version string
}

// DoctorCommand checks storage, the encyclopedia and the themes file.
type DoctorCommand struct {
	globals *GlobalFlags
	version string
}

// InitConfigCommand writes a default config file.
type InitConfigCommand struct {
	globals *GlobalFlags
	version string
}
