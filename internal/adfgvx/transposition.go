package adfgvx

// ReverseTransposition rebuilds the column buffers of a ciphertext. The
// ciphertext is read sequentially and the i-th run of counts[i] symbols is
// stored in columns[order[i]], so the result is indexed by original column
// position. A ciphertext shorter than the partition leaves the trailing
// columns short instead of reading past its end.
func ReverseTransposition(ciphertext string, order, counts []int) [][]byte {
	columns := make([][]byte, len(order))
	pos := 0
	for i, col := range order {
		if i >= len(counts) {
			break
		}
		end := pos + counts[i]
		if end > len(ciphertext) {
			end = len(ciphertext)
		}
		columns[col] = []byte(ciphertext[pos:end])
		pos = end
	}
	return columns
}

// Linearize reads the column buffers row by row in original column order,
// recovering the symbol stream as it was before transposition. At most limit
// symbols are produced; truncated reports whether the limit stopped the
// readout. A limit <= 0 means no bound.
func Linearize(columns [][]byte, limit int) (symbols []byte, truncated bool) {
	maxRows, total := 0, 0
	for _, col := range columns {
		total += len(col)
		if len(col) > maxRows {
			maxRows = len(col)
		}
	}
	if limit > 0 && total > limit {
		total = limit
	}

	symbols = make([]byte, 0, total)
	for r := 0; r < maxRows; r++ {
		for _, col := range columns {
			if r >= len(col) {
				continue
			}
			if limit > 0 && len(symbols) == limit {
				return symbols, true
			}
			symbols = append(symbols, col[r])
		}
	}
	return symbols, false
}

// Columnize is the forward counterpart of Linearize. It writes symbols row by
// row into len(order) columns whose lengths follow the alphabetical partition,
// so the final partial row only occupies the columns that sort first.
func Columnize(symbols []byte, order []int) [][]byte {
	counts := CountsByColumn(order, Partition(len(symbols), len(order)))
	columns := make([][]byte, len(order))
	maxRows := 0
	for c, n := range counts {
		columns[c] = make([]byte, 0, n)
		if n > maxRows {
			maxRows = n
		}
	}

	pos := 0
	for r := 0; r < maxRows; r++ {
		for c := range columns {
			if r < counts[c] {
				columns[c] = append(columns[c], symbols[pos])
				pos++
			}
		}
	}
	return columns
}

// Transpose applies the columnar transposition: symbols are columnized and
// the columns are emitted in alphabetical key order.
func Transpose(symbols []byte, order []int) []byte {
	columns := Columnize(symbols, order)
	out := make([]byte, 0, len(symbols))
	for _, col := range order {
		out = append(out, columns[col]...)
	}
	return out
}
