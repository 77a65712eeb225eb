package datamatrix

// placement lays codewords onto the mapping matrix using the ECC 200
// diagonal pattern. Cells hold -1 until assigned, then 0 or 1.
type placement struct {
	nrow, ncol int
	cw         []byte
	cells      []int8
}

func place(nrow, ncol int, cw []byte) []int8 {
	p := &placement{nrow: nrow, ncol: ncol, cw: cw, cells: make([]int8, nrow*ncol)}
	for i := range p.cells {
		p.cells[i] = -1
	}
	p.run()
	return p.cells
}

func (p *placement) unset(row, col int) bool {
	return p.cells[row*p.ncol+col] < 0
}

func (p *placement) run() {
	pos, row, col := 0, 4, 0
	for {
		if row == p.nrow && col == 0 {
			p.corner1(pos)
			pos++
		}
		if row == p.nrow-2 && col == 0 && p.ncol%4 != 0 {
			p.corner2(pos)
			pos++
		}
		if row == p.nrow-2 && col == 0 && p.ncol%8 == 4 {
			p.corner3(pos)
			pos++
		}
		if row == p.nrow+4 && col == 2 && p.ncol%8 == 0 {
			p.corner4(pos)
			pos++
		}
		// sweep upward to the right
		for {
			if row < p.nrow && col >= 0 && p.unset(row, col) {
				p.utah(row, col, pos)
				pos++
			}
			row -= 2
			col += 2
			if row < 0 || col >= p.ncol {
				break
			}
		}
		row++
		col += 3
		// sweep downward to the left
		for {
			if row >= 0 && col < p.ncol && p.unset(row, col) {
				p.utah(row, col, pos)
				pos++
			}
			row += 2
			col -= 2
			if row >= p.nrow || col < 0 {
				break
			}
		}
		row += 3
		col++
		if row >= p.nrow && col >= p.ncol {
			break
		}
	}
	// fixed pattern for the unfilled bottom-right corner
	if p.unset(p.nrow-1, p.ncol-1) {
		p.cells[(p.nrow-1)*p.ncol+p.ncol-1] = 1
		p.cells[(p.nrow-1)*p.ncol+p.ncol-2] = 0
		p.cells[(p.nrow-2)*p.ncol+p.ncol-1] = 0
		p.cells[(p.nrow-2)*p.ncol+p.ncol-2] = 1
	}
}

// module places bit (1 = most significant) of codeword pos, wrapping
// coordinates that fall off the matrix edge.
func (p *placement) module(row, col, pos, bit int) {
	if row < 0 {
		row += p.nrow
		col += 4 - (p.nrow+4)%8
	}
	if col < 0 {
		col += p.ncol
		row += 4 - (p.ncol+4)%8
	}
	var v int8
	if pos < len(p.cw) && p.cw[pos]&(1<<uint(8-bit)) != 0 {
		v = 1
	}
	p.cells[row*p.ncol+col] = v
}

func (p *placement) utah(row, col, pos int) {
	p.module(row-2, col-2, pos, 1)
	p.module(row-2, col-1, pos, 2)
	p.module(row-1, col-2, pos, 3)
	p.module(row-1, col-1, pos, 4)
	p.module(row-1, col, pos, 5)
	p.module(row, col-2, pos, 6)
	p.module(row, col-1, pos, 7)
	p.module(row, col, pos, 8)
}

func (p *placement) corner1(pos int) {
	p.module(p.nrow-1, 0, pos, 1)
	p.module(p.nrow-1, 1, pos, 2)
	p.module(p.nrow-1, 2, pos, 3)
	p.module(0, p.ncol-2, pos, 4)
	p.module(0, p.ncol-1, pos, 5)
	p.module(1, p.ncol-1, pos, 6)
	p.module(2, p.ncol-1, pos, 7)
	p.module(3, p.ncol-1, pos, 8)
}

func (p *placement) corner2(pos int) {
	p.module(p.nrow-3, 0, pos, 1)
	p.module(p.nrow-2, 0, pos, 2)
	p.module(p.nrow-1, 0, pos, 3)
	p.module(0, p.ncol-4, pos, 4)
	p.module(0, p.ncol-3, pos, 5)
	p.module(0, p.ncol-2, pos, 6)
	p.module(0, p.ncol-1, pos, 7)
	p.module(1, p.ncol-1, pos, 8)
}

func (p *placement) corner3(pos int) {
	p.module(p.nrow-3, 0, pos, 1)
	p.module(p.nrow-2, 0, pos, 2)
	p.module(p.nrow-1, 0, pos, 3)
	p.module(0, p.ncol-2, pos, 4)
	p.module(0, p.ncol-1, pos, 5)
	p.module(1, p.ncol-1, pos, 6)
	p.module(2, p.ncol-1, pos, 7)
	p.module(3, p.ncol-1, pos, 8)
}

func (p *placement) corner4(pos int) {
	p.module(p.nrow-1, 0, pos, 1)
	p.module(p.nrow-1, p.ncol-1, pos, 2)
	p.module(0, p.ncol-3, pos, 3)
	p.module(0, p.ncol-2, pos, 4)
	p.module(0, p.ncol-1, pos, 5)
	p.module(1, p.ncol-3, pos, 6)
	p.module(1, p.ncol-2, pos, 7)
	p.module(1, p.ncol-1, pos, 8)
}
