package grinder

import (
	"log/slog"
	"math/rand/v2"

	"github.com/dm-vev/grindstone/server/machine"
)

const (
	// Size is the amount of slots of a grinder.
	Size = 7
	// ProcessingSlot holds the ingredients of the cycle in progress.
	ProcessingSlot = 6
)

var (
	// InputSlots are the slots that ingredients are inserted into.
	InputSlots = machine.Range{From: 0, To: 3}
	// OutputSlots are the slots that outputs are stored in and extracted from.
	OutputSlots = machine.Range{From: 3, To: 6}
)

// chanceResolution is the amount of distinct values a chance draw may take.
const chanceResolution = 2000

// Config holds the options of a grinder.
type Config struct {
	// Log is the logger used for processing state changes. If nil, slog.Default() is used.
	Log *slog.Logger
	// Recipes is the recipe table the grinder matches its inputs against. New panics if Recipes is nil.
	Recipes RecipeTable
	// Rand is the source of the chance draws for optional results. If nil, the global source of math/rand/v2
	// is used.
	Rand *rand.Rand
	// Remote makes the grinder a read-only mirror of a grinder simulated elsewhere. A remote grinder never
	// turns.
	Remote bool
}

// New creates a grinder using the configuration.
func (conf Config) New() *Grinder {
	if conf.Recipes == nil {
		panic("grinder: config requires a recipe table")
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	g := &Grinder{
		log:     conf.Log.With("subsystem", "machine.grinder"),
		recipes: conf.Recipes,
		remote:  conf.Remote,
		draw: func() float64 {
			return float64(rand.IntN(chanceResolution)) / chanceResolution
		},
	}
	if r := conf.Rand; r != nil {
		g.draw = func() float64 {
			return float64(r.IntN(chanceResolution)) / chanceResolution
		}
	}
	g.inv = machine.NewInventory(Size, g.onChange)
	g.ext = machine.NewFiltered(g.inv, Filter{Recipes: conf.Recipes})
	return g
}

// Grinder is a crank-driven machine that grinds ingredients from its input slots into the outputs of their
// recipe. A cycle starts when CanTurn moves ingredients into the processing slot and completes after the
// recipe's amount of ApplyTurn calls. Grinder is not safe for concurrent use.
type Grinder struct {
	log     *slog.Logger
	recipes RecipeTable
	remote  bool
	draw    func() float64

	inv   *machine.Inventory
	ext   machine.Filtered
	turns int
}

// Inventory returns the internal inventory of the grinder. Access to it is not filtered.
func (g *Grinder) Inventory() *machine.Inventory {
	return g.inv
}

// External returns the filtered view of the inventory exposed to players and automation.
func (g *Grinder) External() machine.Filtered {
	return g.ext
}

// Turns returns the amount of turns applied to the cycle in progress.
func (g *Grinder) Turns() int {
	return g.turns
}

// Processing returns the stack currently being ground.
func (g *Grinder) Processing() machine.Stack {
	s, _ := g.inv.Item(ProcessingSlot)
	return s
}

// Idle checks if no cycle is in progress.
func (g *Grinder) Idle() bool {
	return g.Processing().Empty()
}

// CanTurn reports if the grinder can be turned. If no cycle is in progress, it starts one by moving the
// ingredients of the first matching input slot into the processing slot. False is returned if nothing
// can be ground.
func (g *Grinder) CanTurn() bool {
	if g.remote {
		return false
	}
	if !g.Idle() {
		return true
	}
	for slot := InputSlots.From; slot < InputSlots.To; slot++ {
		s, _ := g.inv.Item(slot)
		if s.Empty() {
			continue
		}
		r, ok := g.recipes.FindMatch(s)
		if !ok {
			continue
		}
		_ = g.inv.SetItem(slot, s.Grow(-r.IngredientCount))
		_ = g.inv.SetItem(ProcessingSlot, s.WithCount(r.IngredientCount))
		g.log.Debug("grinder cycle started", "recipe", r.ID, "slot", slot)
		return true
	}
	return false
}

// ApplyTurn applies a single turn to the cycle in progress. Once the recipe's amount of turns is reached,
// its outputs are stored in the output slots and anything that does not fit is passed to d. A turn applied
// while idle, or while the processing stack no longer matches any recipe, has no effect.
func (g *Grinder) ApplyTurn(d machine.Dropper) {
	if g.remote {
		return
	}
	processing := g.Processing()
	if processing.Empty() {
		return
	}
	r, ok := g.recipes.FindMatch(processing)
	if !ok {
		return
	}
	g.turns++
	if g.turns < r.Turns {
		return
	}
	g.turns = 0

	if d == nil {
		d = machine.NopDropper{}
	}
	out := machine.NewRangedInserter(g.inv, OutputSlots)
	machine.Deliver(out, d, r.Output)
	for _, o := range r.Optional {
		if g.draw() <= o.Chance {
			machine.Deliver(out, d, o.Result)
		}
	}
	_ = g.inv.SetItem(ProcessingSlot, machine.Stack{})
	g.log.Debug("grinder cycle completed", "recipe", r.ID)
}

// Turn asks the grinder if it can be turned and applies a turn if so. It reports if a turn was applied.
func (g *Grinder) Turn(d machine.Dropper) bool {
	if !g.CanTurn() {
		return false
	}
	g.ApplyTurn(d)
	return true
}

// Drops returns the full contents of the grinder, to be dropped when it is broken.
func (g *Grinder) Drops() []machine.Stack {
	var drops []machine.Stack
	for _, s := range g.inv.Slots() {
		if !s.Empty() {
			drops = append(drops, s)
		}
	}
	return drops
}

// onChange resets the turn counter whenever the processing slot is emptied.
func (g *Grinder) onChange(slot int, _, after machine.Stack) {
	if slot == ProcessingSlot && after.Empty() {
		g.turns = 0
	}
}

// EncodeNBT encodes the grinder to NBT.
func (g *Grinder) EncodeNBT() map[string]any {
	return map[string]any{
		"id":    "Grinder",
		"Items": machine.EncodeSlots(g.inv),
		"Turns": int32(g.turns),
	}
}

// DecodeNBT decodes NBT produced by EncodeNBT into the grinder, replacing its contents. The turn counter is
// discarded if no cycle is in progress.
func (g *Grinder) DecodeNBT(m map[string]any) {
	machine.DecodeSlots(g.inv, machine.Slice(m, "Items"))
	g.turns = max(0, int(machine.Int32(m, "Turns")))
	if g.Idle() {
		g.turns = 0
	}
}
