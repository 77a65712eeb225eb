// Package datamatrix encodes text into square Data Matrix ECC 200 symbols.
//
// Encoding runs in three fixed stages: ASCII encodation (with digit-pair
// compaction), Reed-Solomon error correction over GF(256), and diagonal
// module placement inside the finder and alignment patterns. The smallest
// square symbol that holds the data is always chosen, so the output for a
// given input is deterministic.
package datamatrix

import "dmlabels/internal/domain"

// Encode builds the module grid for text. It fails with
// *domain.CapacityExceededError when text does not fit the 144x144 symbol.
func Encode(text string) (*Grid, error) {
	cw := encodeASCII([]byte(text))
	si, ok := selectSymbol(len(cw))
	if !ok {
		return nil, &domain.CapacityExceededError{
			Serial:    text,
			Codewords: len(cw),
			Max:       MaxDataCodewords,
		}
	}
	all := appendECC(pad(cw, si.dataCW), si)
	n := si.mappingSize()
	return buildGrid(si, place(n, n, all)), nil
}

// EncodeRecord is Encode with the record's position attached to any error.
func EncodeRecord(rec domain.SerialRecord) (*Grid, error) {
	g, err := Encode(rec.Text)
	if capErr, ok := err.(*domain.CapacityExceededError); ok {
		capErr.Index = rec.Index
		capErr.Line = rec.LineNumber()
	}
	return g, err
}

// buildGrid wraps the mapping matrix in finder and alignment patterns. Each
// data region gets a solid left column and bottom row, and a top row and
// right column of alternating modules.
func buildGrid(si symbolInfo, cells []int8) *Grid {
	g := newGrid(si.size)
	h := si.region
	n := si.mappingSize()
	for r := 0; r < si.size; r++ {
		lr := r % (h + 2)
		for c := 0; c < si.size; c++ {
			lc := c % (h + 2)
			var dark bool
			switch {
			case lr == h+1, lc == 0:
				dark = true
			case lr == 0:
				dark = lc%2 == 0
			case lc == h+1:
				dark = lr%2 == 1
			default:
				mr := (r/(h+2))*h + lr - 1
				mc := (c/(h+2))*h + lc - 1
				dark = cells[mr*n+mc] == 1
			}
			g.Bits[r][c] = dark
		}
	}
	return g
}
