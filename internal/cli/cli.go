// Package cli implements the wikiroam command line.
package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Nearby         *NearbyCommand
	Detail         *DetailCommand
	Search         *SearchCommand
	Discover       *DiscoverCommand
	BookmarkToggle *BookmarkToggleCommand
	BookmarkList   *BookmarkListCommand
	Cache          *CacheCommand
	Locale         *LocaleCommand
	Doctor         *DoctorCommand
	InitConfig     *InitConfigCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "wikiroam"
	parser.LongDescription = "Explore geotagged Wikipedia articles around a map view."

	cmds := &commands{
		Nearby:         &NearbyCommand{globals: &globals, version: version},
		Detail:         &DetailCommand{globals: &globals, version: version},
		Search:         &SearchCommand{globals: &globals, version: version},
		Discover:       &DiscoverCommand{globals: &globals, version: version},
		BookmarkToggle: &BookmarkToggleCommand{globals: &globals, version: version},
		BookmarkList:   &BookmarkListCommand{globals: &globals, version: version},
		Cache:          &CacheCommand{globals: &globals, version: version},
		Locale:         &LocaleCommand{globals: &globals, version: version},
		Doctor:         &DoctorCommand{globals: &globals, version: version},
		InitConfig:     &InitConfigCommand{globals: &globals, version: version},
	}

	parser.AddCommand("nearby", "List articles around a map view", "Move the map to a view and list the geotagged articles found around it.", cmds.Nearby)
	parser.AddCommand("detail", "Show an article summary", "Open the details panel of an article and print its summary.", cmds.Detail)
	parser.AddCommand("search", "Find a place by name", "Search for a geotagged article by name and fly to it.", cmds.Search)
	parser.AddCommand("discover", "Pick a random destination", "Pick random destinations from a theme without immediate repeats.", cmds.Discover)

	bm, _ := parser.AddCommand("bookmark", "Manage bookmarks", "Add, remove and list bookmarked articles.", &BookmarkCommand{})
	if bm != nil {
		bm.AddCommand("toggle", "Add or remove a bookmark", "Bookmark an article, or remove it if it is already bookmarked.", cmds.BookmarkToggle)
		bm.AddCommand("list", "List bookmarks", "Print the saved bookmarks, oldest first.", cmds.BookmarkList)
	}

	parser.AddCommand("cache", "Inspect the response cache", "List cached response keys, check single keys, or prune old entries.", cmds.Cache)
	parser.AddCommand("locale", "Show or save the language", "Show the active Wikipedia language, or save a new default for later runs.", cmds.Locale)
	parser.AddCommand("doctor", "Run self checks", "Check the database, the encyclopedia API and the themes file.", cmds.Doctor)
	parser.AddCommand("init-config", "Write a default config file", "Write a default config file at --config unless one exists.", cmds.InitConfig)

	return parser, &globals, cmds
}

// Run is the main entry point for the wikiroam CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// --version is valid without a subcommand
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("wikiroam %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
