package uc1701

// Command opcodes. Parameter bits are merged into the low bits of the opcode
// by the builders below.
const (
	opColumnLSB       byte = 0x00 // | column & 0x0f
	opColumnMSB       byte = 0x10 // | column >> 4
	opResistorRatio   byte = 0x20 // | ratio & 0x07
	opPowerControl    byte = 0x28 // | booster, regulator, follower
	opScrollLine      byte = 0x40 // | line & 0x3f
	opContrast        byte = 0x81 // followed by the PM byte
	opSEGDirection    byte = 0xA0 // | mirror
	opBiasRatio       byte = 0xA2 // | 1/7 bias
	opAllPixelsOn     byte = 0xA4 // | on
	opInverse         byte = 0xA6 // | inverse
	opDisplayEnable   byte = 0xAE // | on
	opPage            byte = 0xB0 // | page & 0x0f
	opCOMDirection    byte = 0xC0 // | mirror << 3
	opSystemReset     byte = 0xE2
	opAdvancedControl byte = 0xFA // followed by the control byte
)

// Power control bits.
const (
	PowerFollower  byte = 0x01
	PowerRegulator byte = 0x02
	PowerBooster   byte = 0x04
	PowerAll            = PowerFollower | PowerRegulator | PowerBooster
)

// Advanced control bits, sent as the second byte of AdvancedControl.
const (
	// TempComp selects -0.11%/°C temperature compensation instead of -0.05%/°C.
	TempComp byte = 0x80
	// WrapColumn makes the column address wrap around at the end of a page.
	WrapColumn byte = 0x02
	// WrapPage makes the page address advance when the column wraps.
	WrapPage byte = 0x01
)

// PositionFrame builds the 3-byte frame that moves the write cursor to
// column col of page page.
func PositionFrame(page, col int) [3]byte {
	return [3]byte{
		opColumnMSB | byte(col>>4)&0x0f,
		opColumnLSB | byte(col)&0x0f,
		opPage | byte(page)&0x0f,
	}
}

// ScrollLine selects the RAM line shown on the first display row.
func ScrollLine(line int) byte {
	return opScrollLine | byte(line)&0x3f
}

// SEGDirection selects normal (false) or mirrored (true) column order.
func SEGDirection(mirror bool) byte {
	return opSEGDirection | flag(mirror)
}

// COMDirection selects normal (false) or mirrored (true) row order.
func COMDirection(mirror bool) byte {
	return opCOMDirection | flag(mirror)<<3
}

// AllPixelsOn forces every pixel on regardless of RAM content.
func AllPixelsOn(on bool) byte {
	return opAllPixelsOn | flag(on)
}

// Inverse selects normal (false) or inverted (true) pixel polarity.
func Inverse(on bool) byte {
	return opInverse | flag(on)
}

// Contrast builds the 2-byte electronic volume command. Only the low 6 bits
// of pm are used.
func Contrast(pm byte) [2]byte {
	return [2]byte{opContrast, pm & 0x3f}
}

// PowerControl enables the internal booster, regulator and follower as set in
// bits.
func PowerControl(bits byte) byte {
	return opPowerControl | bits&0x07
}

// ResistorRatio selects the internal regulator resistor ratio (0-7).
func ResistorRatio(ratio byte) byte {
	return opResistorRatio | ratio&0x07
}

// BiasRatio selects 1/9 (false) or 1/7 (true) LCD bias.
func BiasRatio(seventh bool) byte {
	return opBiasRatio | flag(seventh)
}

// AdvancedControl builds the 2-byte advanced program control command.
func AdvancedControl(bits byte) [2]byte {
	return [2]byte{opAdvancedControl, 0x10 | bits&(TempComp|WrapColumn|WrapPage)}
}

// DisplayEnable turns the display on or off. RAM content is kept.
func DisplayEnable(on bool) byte {
	return opDisplayEnable | flag(on)
}

// SystemReset resets the controller registers to their defaults.
func SystemReset() byte {
	return opSystemReset
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
