package datamatrix

// step is one ASCII encodation decision. The set is closed: every input
// position resolves to exactly one of these by nextStep.
type step uint8

const (
	stepChar       step = iota // byte 0..127 -> byte+1
	stepDigitPair              // two digits -> 130 + value
	stepUpperShift             // byte 128..255 -> 235, byte-127
)

const (
	cwPad        = 129
	cwDigitBase  = 130
	cwUpperShift = 235
)

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// nextStep picks the encodation for data[i:]. Digit pairs are taken greedily
// from the left, so "12345" encodes as 12, 34, '5'.
func nextStep(data []byte, i int) step {
	switch {
	case i+1 < len(data) && isDigit(data[i]) && isDigit(data[i+1]):
		return stepDigitPair
	case data[i] >= 128:
		return stepUpperShift
	default:
		return stepChar
	}
}

// consumed is the number of input bytes a step covers.
func (s step) consumed() int {
	if s == stepDigitPair {
		return 2
	}
	return 1
}

func (s step) emit(dst, data []byte, i int) []byte {
	switch s {
	case stepDigitPair:
		v := (data[i]-'0')*10 + (data[i+1] - '0')
		return append(dst, cwDigitBase+v)
	case stepUpperShift:
		return append(dst, cwUpperShift, data[i]-127)
	default:
		return append(dst, data[i]+1)
	}
}

// encodeASCII converts data into ECC 200 data codewords, unpadded.
func encodeASCII(data []byte) []byte {
	cw := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		s := nextStep(data, i)
		cw = s.emit(cw, data, i)
		i += s.consumed()
	}
	return cw
}

// CodewordCount returns how many data codewords text needs before padding.
func CodewordCount(text string) int {
	return len(encodeASCII([]byte(text)))
}

// pad fills cw up to capacity: one 129 then the 253-state randomised pad.
func pad(cw []byte, capacity int) []byte {
	if len(cw) < capacity {
		cw = append(cw, cwPad)
	}
	for len(cw) < capacity {
		pos := len(cw) + 1
		v := cwPad + (149*pos)%253 + 1
		if v > 254 {
			v -= 254
		}
		cw = append(cw, byte(v))
	}
	return cw
}
