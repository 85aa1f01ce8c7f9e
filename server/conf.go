package server

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/event"
	"github.com/dm-vev/grindstone/server/machine/grinder"
	"github.com/dm-vev/grindstone/server/machine/host"
	"github.com/dm-vev/grindstone/server/machine/store"
	"github.com/dm-vev/grindstone/server/machine/upgrade"
)

// Config contains options for running the machines of a world.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger
	// Recipes is the grinder recipe table. If nil, the default recipes are
	// used.
	Recipes *grinder.Recipes
	// Store is the database machines are saved to and loaded from. If nil,
	// machines are not persisted.
	Store *store.DB
	// InboxSize and BudgetPerTick tune the event bus of the machines. Values
	// of 0 or lower select the defaults of the bus.
	InboxSize, BudgetPerTick int
	// Seed seeds the chance draws of optional grinder results. If 0, the
	// global random source is used.
	Seed uint64
}

// New creates the machine registry described by conf. Machines held by the
// store are loaded right away; failing to do so is logged.
func (conf Config) New() *host.Machines {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	hc := host.Config{
		Log:   conf.Log,
		Store: conf.Store,
		Bus:   event.Config{Log: conf.Log, InboxSize: conf.InboxSize, BudgetPerTick: conf.BudgetPerTick},
	}
	// A nil *grinder.Recipes must not end up as a non-nil RecipeTable.
	if conf.Recipes != nil {
		hc.Recipes = conf.Recipes
	}
	if conf.Seed != 0 {
		hc.Rand = rand.New(rand.NewPCG(conf.Seed, conf.Seed^0x9e3779b97f4a7c15))
	}
	m := hc.New()
	if err := m.Load(); err != nil {
		conf.Log.Error("load machines: " + err.Error())
	}
	return m
}

// UserConfig is the user configuration for the machines of a server. It
// holds settings such as where machines are stored and which recipes
// grinders use. UserConfig may be serialised and can be converted to a
// Config by calling UserConfig.Config().
type UserConfig struct {
	Machines struct {
		// SaveData controls whether machines will be saved and loaded. If
		// true, machines are stored in a LevelDB database in Folder.
		SaveData bool
		// Folder is the folder that the machine database resides in.
		Folder string
		// Seed seeds the chance draws of optional grinder results. Leave at 0
		// for random draws.
		Seed uint64
	}
	Recipes struct {
		// File is a TOML file with additional grinder recipes. Leave empty to
		// use only the built-in recipes.
		File string
		// DisableDefaults removes the built-in recipes, so that only the
		// recipes of File are used.
		DisableDefaults bool
	}
	Events struct {
		// InboxSize is the amount of events a chunk may have queued before
		// further events are coalesced.
		InboxSize int
		// BudgetPerTick is the maximum amount of events a chunk handles per
		// tick.
		BudgetPerTick int
	}
	Upgrades struct {
		// Cards maps the names of additional items to the upgrade kind they
		// act as, such as "speed" or "redstone".
		Cards map[string]string
	}
}

// Config converts a UserConfig to a Config, so that it may be used for
// creating the machine registry. Recipe outputs and cards that are not yet
// world items are registered as such, so Config must be called before the
// server is started. An error is returned if loading recipes or opening the
// machine store failed.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	conf := Config{
		Log:           log,
		InboxSize:     uc.Events.InboxSize,
		BudgetPerTick: uc.Events.BudgetPerTick,
		Seed:          uc.Machines.Seed,
	}
	for name, kindName := range uc.Upgrades.Cards {
		k, ok := upgrade.KindByName(strings.ToLower(strings.TrimSpace(kindName)))
		if !ok {
			return conf, fmt.Errorf("register card %v: unknown upgrade kind %q", name, kindName)
		}
		upgrade.RegisterCard(machine.Item{Name: name}, k)
		host.RegisterItems(machine.Item{Name: name})
	}

	var defaults []grinder.Recipe
	if !uc.Recipes.DisableDefaults {
		defaults = grinder.DefaultRecipes()
	}
	recipes, err := grinder.NewRecipes(defaults...)
	if err != nil {
		return conf, fmt.Errorf("register default recipes: %w", err)
	}
	if file := strings.TrimSpace(uc.Recipes.File); file != "" {
		if err := grinder.LoadRecipes(recipes, file); err != nil {
			return conf, fmt.Errorf("load recipes: %w", err)
		}
	}
	if recipes.Len() == 0 {
		log.Warn("config: no grinder recipes registered, grinders will not accept items")
	}
	if n := host.RegisterItems(host.RecipeItems(recipes.All())...); n > 0 {
		log.Debug("config: registered recipe items", "count", n)
	}
	conf.Recipes = recipes

	if uc.Machines.SaveData {
		conf.Store, err = store.Config{Log: log}.Open(filepath.Clean(uc.Machines.Folder))
		if err != nil {
			return conf, fmt.Errorf("create machine store: %w", err)
		}
	}
	return conf, nil
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Machines.SaveData = true
	c.Machines.Folder = "machines"
	c.Recipes.File = ""
	c.Recipes.DisableDefaults = false
	c.Events.InboxSize = 4096
	c.Events.BudgetPerTick = 8192
	c.Upgrades.Cards = map[string]string{}
	return c
}
