package upgrade

import (
	"testing"

	"github.com/dm-vev/grindstone/server/machine"
)

func card(k Kind) machine.Stack {
	return machine.NewStack(Card(k), 1)
}

func newTestHost(signal *bool, limits Limits) *Host {
	return Config{
		Limits: limits,
		Signal: SignalFunc(func() bool { return *signal }),
	}.New()
}

func TestInstalledCountCountsCardsByKind(t *testing.T) {
	var signal bool
	h := newTestHost(&signal, Limits{SpeedKind(): 4, RedstoneKind(): 1})
	ext := h.Upgrades().External()

	ext.AddItem(card(SpeedKind()))
	ext.AddItem(card(SpeedKind()))
	ext.AddItem(card(RedstoneKind()))

	if got := h.InstalledCount(SpeedKind()); got != 2 {
		t.Fatalf("expected 2 speed cards, got %d", got)
	}
	if got := h.InstalledCount(RedstoneKind()); got != 1 {
		t.Fatalf("expected 1 redstone card, got %d", got)
	}
	if got := h.InstalledCount(FuzzyKind()); got != 0 {
		t.Fatalf("expected no fuzzy cards, got %d", got)
	}
}

func TestUpgradeInventoryEnforcesLimits(t *testing.T) {
	var signal bool
	h := newTestHost(&signal, Limits{RedstoneKind(): 1})
	ext := h.Upgrades().External()

	if leftover := ext.AddItem(machine.NewStack(machine.Item{Name: "minecraft:dirt"}, 1)); leftover.Empty() {
		t.Fatalf("expected non-card items to be refused")
	}
	if leftover := ext.AddItem(card(SpeedKind())); leftover.Empty() {
		t.Fatalf("expected cards of kinds without a limit to be refused")
	}
	if leftover := ext.AddItem(card(RedstoneKind())); !leftover.Empty() {
		t.Fatalf("expected first redstone card to be accepted")
	}
	if leftover := ext.AddItem(card(RedstoneKind())); leftover.Empty() {
		t.Fatalf("expected second redstone card to exceed the limit")
	}
}

func TestUpgradeSlotsHoldOneCard(t *testing.T) {
	var signal bool
	h := newTestHost(&signal, Limits{SpeedKind(): 4})

	leftover := h.Upgrades().External().Insert(0, machine.NewStack(Card(SpeedKind()), 3), false)
	if leftover.Count() != 2 {
		t.Fatalf("expected 2 cards to be left over, got %v", leftover)
	}
}

func TestCanAcceptRedstoneControlDependsOnLimits(t *testing.T) {
	var signal bool
	if newTestHost(&signal, Limits{SpeedKind(): 1}).CanAcceptRedstoneControl() {
		t.Fatalf("expected part without redstone limit to refuse redstone control")
	}
	if !newTestHost(&signal, Limits{RedstoneKind(): 1}).CanAcceptRedstoneControl() {
		t.Fatalf("expected part with redstone limit to accept redstone control")
	}
}

func TestIsSleeping(t *testing.T) {
	tests := []struct {
		name     string
		card     bool
		mode     RedstoneMode
		signal   bool
		sleeping bool
	}{
		{name: "no card high signal", mode: HighSignal(), sleeping: false},
		{name: "no card pulse", mode: SignalPulse(), sleeping: false},
		{name: "ignore", card: true, mode: IgnoreRedstone(), sleeping: false},
		{name: "high with signal", card: true, mode: HighSignal(), signal: true, sleeping: false},
		{name: "high without signal", card: true, mode: HighSignal(), sleeping: true},
		{name: "low with signal", card: true, mode: LowSignal(), signal: true, sleeping: true},
		{name: "low without signal", card: true, mode: LowSignal(), sleeping: false},
		{name: "pulse", card: true, mode: SignalPulse(), signal: true, sleeping: true},
		{name: "unknown mode", card: true, mode: RedstoneMode{9}, sleeping: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := tt.signal
			h := newTestHost(&signal, Limits{RedstoneKind(): 1})
			if tt.card {
				h.Upgrades().External().AddItem(card(RedstoneKind()))
			}
			h.SetSettings(Settings{Redstone: tt.mode})
			if got := h.IsSleeping(); got != tt.sleeping {
				t.Fatalf("expected sleeping %v, got %v", tt.sleeping, got)
			}
		})
	}
}

func TestCallbacks(t *testing.T) {
	var upgrades, settings int
	h := Config{
		Limits:          Limits{SpeedKind(): 2},
		UpgradesChanged: func() { upgrades++ },
		SettingChanged:  func(Settings) { settings++ },
	}.New()

	h.Upgrades().External().AddItem(card(SpeedKind()))
	h.SetSettings(Settings{Redstone: LowSignal()})
	h.SetSettings(Settings{Redstone: LowSignal()})

	if upgrades != 1 {
		t.Fatalf("expected 1 upgrade notification, got %d", upgrades)
	}
	if settings != 1 {
		t.Fatalf("expected 1 setting notification, got %d", settings)
	}
}

func TestNBTRoundTrip(t *testing.T) {
	var signal bool
	h := newTestHost(&signal, Limits{SpeedKind(): 2, RedstoneKind(): 1})
	h.Upgrades().External().AddItem(card(SpeedKind()))
	h.Upgrades().External().AddItem(card(RedstoneKind()))
	h.SetSettings(Settings{Redstone: SignalPulse()})

	m := map[string]any{}
	h.WriteNBT(m)
	b, err := machine.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := machine.Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored := newTestHost(&signal, Limits{SpeedKind(): 2, RedstoneKind(): 1})
	restored.ReadNBT(decoded)

	if restored.Settings() != h.Settings() {
		t.Fatalf("expected settings %v, got %v", h.Settings(), restored.Settings())
	}
	for _, k := range Kinds() {
		if restored.InstalledCount(k) != h.InstalledCount(k) {
			t.Fatalf("%v: expected %d installed, got %d", k, h.InstalledCount(k), restored.InstalledCount(k))
		}
	}
	if len(restored.Drops()) != 2 {
		t.Fatalf("expected 2 drops, got %v", restored.Drops())
	}
}

func TestInventoryByName(t *testing.T) {
	h := Config{}.New()
	if inv, ok := h.InventoryByName("upgrades"); !ok || inv.Size() != 4 {
		t.Fatalf("expected default upgrade inventory with 4 slots")
	}
	if _, ok := h.InventoryByName("config"); ok {
		t.Fatalf("expected unknown inventory name to be absent")
	}
}

func TestReadNBTNotifiesSettings(t *testing.T) {
	src := Config{Limits: Limits{RedstoneKind(): 1}}.New()
	src.SetSettings(Settings{Redstone: HighSignal()})
	m := map[string]any{}
	src.WriteNBT(m)

	var got []Settings
	h := Config{
		Limits:         Limits{RedstoneKind(): 1},
		SettingChanged: func(s Settings) { got = append(got, s) },
	}.New()
	h.ReadNBT(m)
	h.ReadNBT(m)
	if len(got) != 1 || got[0].Redstone != HighSignal() {
		t.Fatalf("expected one notification with the decoded settings, got %v", got)
	}
}
