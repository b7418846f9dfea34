package cli

import (
	"context"
	"errors"
	"fmt"

	"wikiroam/pkg/probe"
)

const doctorStateKey = "doctor_probe"

// Execute implements goflags.Commander.
func (c *DoctorCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *DoctorCommand) run(ctx context.Context, a *app) error {
	probes := []probe.Probe{
		{Name: "database", Critical: true, Check: a.checkState},
		{Name: "encyclopedia", Critical: true, Check: a.checkEncyclopedia},
		{Name: "themes", Check: a.checkThemes},
	}

	results := probe.Run(ctx, probes, probe.DefaultTimeout)
	probe.Report(a.out, results)
	return probe.Analyze(results)
}

// checkState writes, reads back and deletes a state entry.
func (a *app) checkState(ctx context.Context) error {
	if err := a.store.SetState(ctx, doctorStateKey, a.cfg.Wikipedia.Locale); err != nil {
		return err
	}
	defer a.store.DeleteState(ctx, doctorStateKey)

	got, ok := a.store.GetState(ctx, doctorStateKey)
	if !ok || got != a.cfg.Wikipedia.Locale {
		return fmt.Errorf("state read back %q, want %q", got, a.cfg.Wikipedia.Locale)
	}
	return nil
}

// checkEncyclopedia runs a small nearby search at the first discovery
// destination, or at null island.
func (a *app) checkEncyclopedia(ctx context.Context) error {
	lat, lon := 0.0, 0.0
	if names := a.themes.Names(); len(names) > 0 {
		loc := a.themes.Themes[names[0]][0]
		lat, lon = loc.Lat, loc.Lon
	}
	_, err := a.wiki.SearchNearby(ctx, lat, lon, a.cfg.Map.RadiusMin.Meters(), a.cfg.Wikipedia.Locale)
	return err
}

func (a *app) checkThemes(context.Context) error {
	if len(a.themes.Names()) == 0 {
		return errors.New("no discovery themes loaded")
	}
	return nil
}
