package part

import (
	"log/slog"

	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/event"
	"github.com/dm-vev/grindstone/server/machine/upgrade"
)

// AutoCrankLimits are the upgrade limits of an auto crank.
var AutoCrankLimits = upgrade.Limits{
	upgrade.RedstoneKind(): 1,
	upgrade.SpeedKind():    3,
}

// AutoCrankConfig holds the options of an auto crank.
type AutoCrankConfig struct {
	// Log is the logger of the crank. If nil, slog.Default() is used.
	Log *slog.Logger
	// Target is the position of the machine the crank turns.
	Target event.Pos
	// UpgradesChanged is called after the upgrade cards of the crank changed.
	UpgradesChanged func()
}

// New creates an AutoCrank from the configuration.
func (conf AutoCrankConfig) New() *AutoCrank {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	a := &AutoCrank{target: conf.Target, log: conf.Log.With("subsystem", "machine.part")}
	a.host = upgrade.Config{
		Log:             conf.Log,
		Limits:          AutoCrankLimits,
		Signal:          upgrade.SignalFunc(a.Powered),
		UpgradesChanged: conf.UpgradesChanged,
	}.New()
	return a
}

// AutoCrank is an upgradeable part that turns the machine below it every tick. Every speed card installed
// adds one turn per tick. With a redstone card installed, the redstone mode of the crank decides when it
// works, and in SignalPulse mode it turns once per rising edge of its signal.
type AutoCrank struct {
	log     *slog.Logger
	host    *upgrade.Host
	target  event.Pos
	powered bool
}

// Host returns the upgrade host of the crank.
func (a *AutoCrank) Host() *upgrade.Host {
	return a.host
}

// Target returns the position of the machine turned by the crank.
func (a *AutoCrank) Target() event.Pos {
	return a.target
}

// Powered reports if the crank currently receives a redstone signal.
func (a *AutoCrank) Powered() bool {
	return a.powered
}

// TurnsPerTick returns the amount of crank events the crank emits per tick while awake.
func (a *AutoCrank) TurnsPerTick() int {
	return 1 + a.host.InstalledCount(upgrade.SpeedKind())
}

// HandleEvent ...
func (a *AutoCrank) HandleEvent(ev event.Event, emit event.Emitter) {
	switch ev.Kind {
	case event.KindTick:
		if a.host.IsSleeping() {
			return
		}
		for i := range a.TurnsPerTick() {
			emit.Local(event.Event{Pos: a.target, Kind: event.KindCrank, Tick: ev.Tick, Seq: uint32(i)})
		}
	case event.KindSignalRise:
		rising := !a.powered
		a.powered = true
		if rising && a.pulse() {
			emit.Local(event.Event{Pos: a.target, Kind: event.KindCrank, Tick: ev.Tick})
		}
	case event.KindSignalFall:
		a.powered = false
	}
}

// pulse checks if the crank turns on rising edges only.
func (a *AutoCrank) pulse() bool {
	return a.host.InstalledCount(upgrade.RedstoneKind()) > 0 && a.host.Settings().Redstone == upgrade.SignalPulse()
}

// Drops returns the upgrade cards of the crank.
func (a *AutoCrank) Drops() []machine.Stack {
	return a.host.Drops()
}

// EncodeNBT encodes the crank to NBT.
func (a *AutoCrank) EncodeNBT() map[string]any {
	m := map[string]any{"id": "AutoCrank", "powered": boolByte(a.powered)}
	a.host.WriteNBT(m)
	return m
}

// DecodeNBT decodes NBT produced by EncodeNBT into the crank.
func (a *AutoCrank) DecodeNBT(m map[string]any) {
	a.host.ReadNBT(m)
	a.powered = machine.Uint8(m, "powered") == 1
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
