package format

// Encode expands payload bytes into bits, eight per byte, most significant first.
func Encode(payload []byte) []uint8 {
	bits := make([]uint8, 0, len(payload)*8)
	for _, b := range payload {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, (b>>shift)&1)
		}
	}
	return bits
}
