package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/entity"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/grindstone/server/internal/txguard"
	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/event"
	"github.com/dm-vev/grindstone/server/machine/grinder"
	"github.com/dm-vev/grindstone/server/machine/part"
	"github.com/dm-vev/grindstone/server/machine/store"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

var (
	// ErrOccupied is returned when a machine is placed at a position that already holds one.
	ErrOccupied = errors.New("position already holds a machine")
	// ErrNoMachine is returned when no grindstone exists at the position a crank is attached to.
	ErrNoMachine = errors.New("no grindstone at position")
	// ErrNotAttachable is returned when a crank is attached to a face of a grindstone that does not accept it.
	ErrNotAttachable = errors.New("crank cannot attach to this face")
)

const (
	kindGrinder   = "Grinder"
	kindAutoCrank = "AutoCrank"
)

// manualSeq is set in the Seq of hand cranks. Auto cranks number their turns from 0, so hand cranks never
// share a Seq with them.
const manualSeq = 1 << 31

// Config holds the options of a Machines registry.
type Config struct {
	// Log is the logger of the machines. If nil, slog.Default() is used.
	Log *slog.Logger
	// Recipes is the recipe table of all grindstones. If nil, the default recipes are used.
	Recipes grinder.RecipeTable
	// Store persists machines on Save and Load. If nil, Save and Load do nothing.
	Store *store.DB
	// Bus configures the event bus machines communicate through.
	Bus event.Config
	// Rand is the source of optional result draws. If nil, the global source is used.
	Rand *rand.Rand
}

// New creates a Machines registry from the configuration.
func (conf Config) New() *Machines {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Recipes == nil {
		recipes, err := grinder.NewRecipes(grinder.DefaultRecipes()...)
		if err != nil {
			panic(fmt.Errorf("default grinder recipes: %w", err))
		}
		conf.Recipes = recipes
	}
	if conf.Bus.Log == nil {
		conf.Bus.Log = conf.Log
	}
	return &Machines{
		conf:        conf,
		log:         conf.Log.With("subsystem", "machine.host"),
		bus:         conf.Bus.New(),
		grindstones: make(map[cube.Pos]*Grindstone),
		cranks:      make(map[cube.Pos]*crank),
	}
}

// Machines holds all machines placed in a world and drives them from the world tick. Machines is not safe
// for concurrent use: all methods, Crank and Signal included, must be called from the goroutine that ticks
// the world.
type Machines struct {
	conf Config
	log  *slog.Logger
	bus  *event.Bus

	// cranked counts hand cranks, so that every hand crank is posted with its own Seq.
	cranked uint32

	grindstones map[cube.Pos]*Grindstone
	cranks      map[cube.Pos]*crank

	// pending holds drops that could not be spawned yet because the transaction of a tick finished.
	pending []event.Event
}

type crank struct {
	*part.AutoCrank
	id         uuid.UUID
	face       cube.Face
	unregister func()
}

// Bus returns the event bus of the machines.
func (m *Machines) Bus() *event.Bus {
	return m.bus
}

// PlaceGrindstone places a grindstone at pos that drops its outputs on the side facing.
func (m *Machines) PlaceGrindstone(pos cube.Pos, facing cube.Face) (*Grindstone, error) {
	return m.placeGrindstone(pos, uuid.New(), facing, cube.FaceUp)
}

func (m *Machines) placeGrindstone(pos cube.Pos, id uuid.UUID, facing, up cube.Face) (*Grindstone, error) {
	if m.occupied(pos) {
		return nil, fmt.Errorf("place grindstone at %v: %w", pos, ErrOccupied)
	}
	g := &Grindstone{
		pos:    pos,
		id:     id,
		facing: facing,
		up:     up,
		bus:    m.bus,
		g: grinder.Config{
			Log:     m.conf.Log,
			Recipes: m.conf.Recipes,
			Rand:    m.conf.Rand,
		}.New(),
	}
	g.unregister = m.bus.Register(event.Pos(pos), g.g)
	m.grindstones[pos] = g
	m.log.Debug("grindstone placed", "pos", pos, "id", id)
	return g, nil
}

// PlaceAutoCrank attaches an auto crank to the face of the grindstone at target. The crank itself is
// placed at target.Side(face).
func (m *Machines) PlaceAutoCrank(target cube.Pos, face cube.Face) (*part.AutoCrank, error) {
	return m.placeAutoCrank(target, uuid.New(), face)
}

func (m *Machines) placeAutoCrank(target cube.Pos, id uuid.UUID, face cube.Face) (*part.AutoCrank, error) {
	g, ok := m.grindstones[target]
	if !ok {
		return nil, fmt.Errorf("attach crank to %v: %w", target, ErrNoMachine)
	}
	if !g.CanCrankAttach(face) {
		return nil, fmt.Errorf("attach crank to %v on %v: %w", target, face, ErrNotAttachable)
	}
	pos := target.Side(face)
	if m.occupied(pos) {
		return nil, fmt.Errorf("attach crank at %v: %w", pos, ErrOccupied)
	}
	a := part.AutoCrankConfig{Log: m.conf.Log, Target: event.Pos(target)}.New()
	c := &crank{AutoCrank: a, id: id, face: face}
	c.unregister = m.bus.RegisterTicking(event.Pos(pos), a)
	m.cranks[pos] = c
	m.log.Debug("auto crank placed", "pos", pos, "target", target, "id", id)
	return a, nil
}

// Grindstone returns the grindstone at pos.
func (m *Machines) Grindstone(pos cube.Pos) (*Grindstone, bool) {
	g, ok := m.grindstones[pos]
	return g, ok
}

// AutoCrank returns the auto crank at pos.
func (m *Machines) AutoCrank(pos cube.Pos) (*part.AutoCrank, bool) {
	c, ok := m.cranks[pos]
	if !ok {
		return nil, false
	}
	return c.AutoCrank, true
}

// Len returns the amount of machines placed.
func (m *Machines) Len() int {
	return len(m.grindstones) + len(m.cranks)
}

// Crank turns the grindstone at pos once during the next tick, as if cranked by hand. Every call results in
// one turn, also when cranked several times or by an auto crank in the same tick. It reports if a grindstone
// exists at pos.
func (m *Machines) Crank(pos cube.Pos) bool {
	if _, ok := m.grindstones[pos]; !ok {
		return false
	}
	seq := manualSeq | m.cranked&(manualSeq-1)
	m.cranked++
	m.bus.Post(event.Event{Pos: event.Pos(pos), Kind: event.KindCrank, Seq: seq})
	return true
}

// Signal updates the redstone power received by the auto crank at pos.
func (m *Machines) Signal(pos cube.Pos, power uint8) bool {
	if _, ok := m.cranks[pos]; !ok {
		return false
	}
	kind := event.KindSignalFall
	if power > 0 {
		kind = event.KindSignalRise
	}
	m.bus.Post(event.Event{Pos: event.Pos(pos), Kind: kind, Power: power})
	return true
}

// Tick steps all machines for the tick passed and spawns the items they dropped in tx. Drops that could not
// be spawned because tx finished are kept and spawned during the next tick.
func (m *Machines) Tick(ctx context.Context, tx *world.Tx, tick int64) error {
	res := m.bus.Step(ctx, tick)
	for _, ev := range res.Outputs {
		if ev.Kind == event.KindDrop && !ev.Stack.Empty() {
			m.pending = append(m.pending, ev)
		}
	}
	if len(m.pending) > 0 {
		n := txguard.Each(tx, m.pending, m.spawn)
		m.pending = m.pending[n:]
	}
	if res.Err != nil {
		return fmt.Errorf("tick %v: %w", tick, res.Err)
	}
	return nil
}

// Pending returns the amount of drops waiting for a transaction to be spawned in.
func (m *Machines) Pending() int {
	return len(m.pending)
}

// spawn spawns the stack of a drop event as an item entity. Drops of a grindstone are spawned on the side
// it faces.
func (m *Machines) spawn(tx *world.Tx, ev event.Event) {
	pos := cube.Pos(ev.Pos)
	if g, ok := m.grindstones[pos]; ok {
		pos = g.OutputPos()
	}
	m.drop(tx, pos.Vec3Centre(), ev.Stack)
}

func (m *Machines) drop(tx *world.Tx, at mgl64.Vec3, s machine.Stack) {
	st, ok := StackTo(s)
	if !ok {
		m.log.Warn("drop of unregistered item discarded", "item", s.Item(), "count", s.Count())
		return
	}
	opts := world.EntitySpawnOpts{Position: at, Velocity: mgl64.Vec3{0, 0.1, 0}}
	tx.AddEntity(entity.NewItem(opts, st))
}

// Break removes the machine at pos and drops its contents in tx. An auto crank attached to a grindstone
// broken is broken along with it.
func (m *Machines) Break(tx *world.Tx, pos cube.Pos) bool {
	var drops []machine.Stack
	if g, ok := m.grindstones[pos]; ok {
		drops = g.drops()
		delete(m.grindstones, pos)
		m.deleteRecord(pos)
		for cpos, c := range m.cranks {
			if cube.Pos(c.Target()) == pos {
				m.Break(tx, cpos)
			}
		}
		g.unregister()
	} else if c, ok := m.cranks[pos]; ok {
		drops = c.Drops()
		c.unregister()
		delete(m.cranks, pos)
		m.deleteRecord(pos)
	} else {
		return false
	}
	txguard.Run(tx, func() {
		for _, s := range drops {
			m.drop(tx, pos.Vec3Centre(), s)
		}
	})
	m.log.Debug("machine broken", "pos", pos, "drops", len(drops))
	return true
}
