package upgrade

// RedstoneMode controls how a part equipped with a redstone card reacts to the redstone signal it receives.
type RedstoneMode struct {
	redstoneMode
}

// IgnoreRedstone makes the part work regardless of the signal.
func IgnoreRedstone() RedstoneMode {
	return RedstoneMode{0}
}

// HighSignal makes the part work only while it receives a signal.
func HighSignal() RedstoneMode {
	return RedstoneMode{1}
}

// LowSignal makes the part work only while it receives no signal.
func LowSignal() RedstoneMode {
	return RedstoneMode{2}
}

// SignalPulse makes the part work once for every rising edge of the signal.
func SignalPulse() RedstoneMode {
	return RedstoneMode{3}
}

// RedstoneModes returns all redstone modes.
func RedstoneModes() []RedstoneMode {
	return []RedstoneMode{IgnoreRedstone(), HighSignal(), LowSignal(), SignalPulse()}
}

// RedstoneModeByName returns the redstone mode with the name passed, as returned by RedstoneMode.String.
func RedstoneModeByName(name string) (RedstoneMode, bool) {
	for _, m := range RedstoneModes() {
		if m.String() == name {
			return m, true
		}
	}
	return RedstoneMode{}, false
}

type redstoneMode uint8

// Uint8 returns the redstone mode as a uint8.
func (m redstoneMode) Uint8() uint8 {
	return uint8(m)
}

// String ...
func (m redstoneMode) String() string {
	switch m {
	case 0:
		return "ignore"
	case 1:
		return "high_signal"
	case 2:
		return "low_signal"
	case 3:
		return "signal_pulse"
	}
	return "unknown"
}

// Settings is the configuration of an upgradeable part.
type Settings struct {
	// Redstone is the redstone mode of the part. It only has an effect while a redstone card is installed.
	Redstone RedstoneMode
}
