package upgrade

import (
	"log/slog"

	"github.com/dm-vev/grindstone/server/machine"
)

// SignalSource reports if a redstone signal is present on the side a part is attached to.
type SignalSource interface {
	HasRedstone() bool
}

// SignalFunc implements SignalSource with a plain function.
type SignalFunc func() bool

// HasRedstone ...
func (f SignalFunc) HasRedstone() bool {
	return f()
}

// Config holds the options of an upgradeable part.
type Config struct {
	// Log is the logger used for upgrade and setting changes. If nil, slog.Default() is used.
	Log *slog.Logger
	// Slots is the amount of upgrade slots. If 0 or lower, 4 slots are used.
	Slots int
	// Limits holds the maximum amount of cards per kind. Kinds absent from Limits cannot be installed.
	Limits Limits
	// Signal provides the redstone signal used by IsSleeping. If nil, no signal is ever present.
	Signal SignalSource
	// UpgradesChanged is called after the contents of the upgrade inventory changed.
	UpgradesChanged func()
	// SettingChanged is called after the settings were changed through SetSettings.
	SettingChanged func(Settings)
}

// New creates a Host from the configuration.
func (conf Config) New() *Host {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Slots <= 0 {
		conf.Slots = 4
	}
	if conf.Signal == nil {
		conf.Signal = SignalFunc(func() bool { return false })
	}
	h := &Host{
		log:             conf.Log.With("subsystem", "machine.upgrade"),
		signal:          conf.Signal,
		upgradesChanged: conf.UpgradesChanged,
		settingChanged:  conf.SettingChanged,
	}
	h.upgrades = newInventory(conf.Slots, conf.Limits, func(slot int, before, after machine.Stack) {
		h.log.Debug("upgrade slot changed", "slot", slot, "before", before, "after", after)
		if h.upgradesChanged != nil {
			h.upgradesChanged()
		}
	})
	return h
}

// Host is the upgrade and settings holder shared by upgradeable parts. It exposes the amount of installed
// upgrade cards and decides if the part is sleeping based on its redstone mode.
type Host struct {
	log      *slog.Logger
	upgrades *Inventory
	settings Settings
	signal   SignalSource

	upgradesChanged func()
	settingChanged  func(Settings)
}

// InstalledCount returns the amount of cards of kind k installed.
func (h *Host) InstalledCount(k Kind) int {
	return h.upgrades.Installed(k)
}

// Upgrades returns the upgrade inventory of the host.
func (h *Host) Upgrades() *Inventory {
	return h.upgrades
}

// CanAcceptRedstoneControl reports if this kind of part supports redstone cards at all. It depends on the
// limits of the part, not on the cards currently installed.
func (h *Host) CanAcceptRedstoneControl() bool {
	return h.upgrades.MaxInstalled(RedstoneKind()) > 0
}

// IsSleeping reports if the part should currently do no work. A part without a redstone card never sleeps.
// SignalPulse parts always sleep here: their work is triggered by the rising edge of the signal instead.
func (h *Host) IsSleeping() bool {
	if h.InstalledCount(RedstoneKind()) == 0 {
		return false
	}
	switch h.settings.Redstone {
	case IgnoreRedstone():
		return false
	case HighSignal():
		return !h.signal.HasRedstone()
	case LowSignal():
		return h.signal.HasRedstone()
	case SignalPulse():
		return true
	}
	return true
}

// Settings returns the current settings of the host.
func (h *Host) Settings() Settings {
	return h.settings
}

// SetSettings replaces the settings of the host and notifies the setting callback if they changed.
func (h *Host) SetSettings(s Settings) {
	if h.settings == s {
		return
	}
	h.settings = s
	h.log.Debug("settings changed", "redstone", s.Redstone)
	if h.settingChanged != nil {
		h.settingChanged(s)
	}
}

// SetSignal replaces the signal source used by IsSleeping.
func (h *Host) SetSignal(s SignalSource) {
	if s == nil {
		s = SignalFunc(func() bool { return false })
	}
	h.signal = s
}

// InventoryByName returns the inventory of the host with the name passed. Only "upgrades" exists.
func (h *Host) InventoryByName(name string) (*machine.Inventory, bool) {
	if name == "upgrades" {
		return h.upgrades.inv, true
	}
	return nil, false
}

// Drops returns the cards that should be dropped when the part is removed.
func (h *Host) Drops() []machine.Stack {
	var drops []machine.Stack
	for _, s := range h.upgrades.inv.Slots() {
		if !s.Empty() {
			drops = append(drops, s)
		}
	}
	return drops
}

// WriteNBT writes the upgrades and settings of the host into m.
func (h *Host) WriteNBT(m map[string]any) {
	m["upgrades"] = machine.EncodeSlots(h.upgrades.inv)
	m["redstone_controlled"] = h.settings.Redstone.String()
}

// ReadNBT reads the upgrades and settings of the host from m. Unknown redstone modes fall back to
// IgnoreRedstone. Settings are applied through SetSettings, so SettingChanged is called if they differ.
func (h *Host) ReadNBT(m map[string]any) {
	machine.DecodeSlots(h.upgrades.inv, machine.Slice(m, "upgrades"))
	mode, ok := RedstoneModeByName(machine.String(m, "redstone_controlled"))
	if !ok {
		mode = IgnoreRedstone()
	}
	h.SetSettings(Settings{Redstone: mode})
}
