package datamatrix

// GF(256) with primitive polynomial x^8+x^5+x^3+x^2+1 (0x12D).
const gfPoly = 0x12D

var (
	gfExp [512]byte
	gfLog [256]int
	// generators[n] holds the monic generator of degree n, highest power first.
	generators = map[int][]byte{}
)

func init() {
	x := 1
	for i := 0; i < 255; i++ {
		gfExp[i] = byte(x)
		gfLog[x] = i
		x <<= 1
		if x >= 256 {
			x ^= gfPoly
		}
	}
	for i := 255; i < len(gfExp); i++ {
		gfExp[i] = gfExp[i-255]
	}
	for _, s := range symbols {
		n := s.eccPerBlock()
		if _, ok := generators[n]; !ok {
			generators[n] = generator(n)
		}
	}
}

func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[gfLog[a]+gfLog[b]]
}

// generator returns (x+a^1)(x+a^2)...(x+a^n).
func generator(n int) []byte {
	g := []byte{1}
	for i := 1; i <= n; i++ {
		next := make([]byte, len(g)+1)
		for j, c := range g {
			next[j] ^= c
			next[j+1] ^= gfMul(c, gfExp[i])
		}
		g = next
	}
	return g
}

// rsEncode returns the n error correction codewords for one block.
func rsEncode(data []byte, n int) []byte {
	gen, ok := generators[n]
	if !ok {
		gen = generator(n)
	}
	rem := make([]byte, n)
	for _, d := range data {
		fb := d ^ rem[0]
		copy(rem, rem[1:])
		rem[n-1] = 0
		if fb == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			rem[i] ^= gfMul(gen[i+1], fb)
		}
	}
	return rem
}

// appendECC interleaves data into the symbol's blocks and returns data
// followed by the interleaved error correction codewords. The 144x144
// symbol stores its error correction blocks rotated: block b sits in slot
// (b+2) mod 10.
func appendECC(data []byte, si symbolInfo) []byte {
	out := make([]byte, si.dataCW+si.eccCW)
	copy(out, data)
	per := si.eccPerBlock()
	for b := 0; b < si.blocks; b++ {
		block := make([]byte, 0, si.dataCW/si.blocks+1)
		for i := b; i < si.dataCW; i += si.blocks {
			block = append(block, data[i])
		}
		slot := eccSlot(si, b)
		for j, e := range rsEncode(block, per) {
			out[si.dataCW+j*si.blocks+slot] = e
		}
	}
	return out
}

func eccSlot(si symbolInfo, block int) int {
	if si.size == 144 {
		return (block + 2) % si.blocks
	}
	return block
}
