package datamatrix

// symbolInfo describes one square ECC 200 symbol.
type symbolInfo struct {
	size    int // symbol side in modules, finder pattern included
	region  int // data region side in modules
	regions int // data regions per side
	dataCW  int
	eccCW   int
	blocks  int // interleaved Reed-Solomon blocks
}

// symbols is ordered by capacity; selection takes the first that fits.
var symbols = []symbolInfo{
	{10, 8, 1, 3, 5, 1},
	{12, 10, 1, 5, 7, 1},
	{14, 12, 1, 8, 10, 1},
	{16, 14, 1, 12, 12, 1},
	{18, 16, 1, 18, 14, 1},
	{20, 18, 1, 22, 18, 1},
	{22, 20, 1, 30, 20, 1},
	{24, 22, 1, 36, 24, 1},
	{26, 24, 1, 44, 28, 1},
	{32, 14, 2, 62, 36, 1},
	{36, 16, 2, 86, 42, 1},
	{40, 18, 2, 114, 48, 1},
	{44, 20, 2, 144, 56, 1},
	{48, 22, 2, 174, 68, 1},
	{52, 24, 2, 204, 84, 2},
	{64, 14, 4, 280, 112, 2},
	{72, 16, 4, 368, 144, 4},
	{80, 18, 4, 456, 192, 4},
	{88, 20, 4, 576, 224, 4},
	{96, 22, 4, 696, 272, 4},
	{104, 24, 4, 816, 336, 6},
	{120, 18, 6, 1050, 408, 6},
	{132, 20, 6, 1304, 496, 8},
	{144, 22, 6, 1558, 620, 10},
}

const (
	// MaxDataCodewords is the data capacity of the largest (144x144) symbol.
	MaxDataCodewords = 1558
	// MaxTextLength is the longest serial without digit pairs or extended bytes.
	MaxTextLength = MaxDataCodewords
	// MaxNumericLength is the longest all-digit serial.
	MaxNumericLength = 2 * MaxDataCodewords
)

// mappingSize is the side of the placement matrix, finder patterns excluded.
func (s symbolInfo) mappingSize() int {
	return s.region * s.regions
}

func (s symbolInfo) eccPerBlock() int {
	return s.eccCW / s.blocks
}

// selectSymbol returns the smallest symbol holding n data codewords.
func selectSymbol(n int) (symbolInfo, bool) {
	for _, s := range symbols {
		if n <= s.dataCW {
			return s, true
		}
	}
	return symbolInfo{}, false
}

