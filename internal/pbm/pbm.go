// Package pbm writes the binary (P4) portable bitmap format the
// rasterization harness uses as its golden-image format.
package pbm

import (
	"bufio"
	"fmt"
	"io"
)

// WriteP4 rasterizes an implicit shape into a size x size P4 PBM image,
// calling at for every pixel to decide whether it's set. Pixel (col,
// row) maps to shape coordinates x(col) = col*2/(size-1) - 1, y(row) =
// -(row*2/(size-1) - 1), and the bit is set iff at(x, y) is true. Rows
// are written top to bottom, each byte MSB-first, padded with zero bits
// out to a byte boundary.
func WriteP4(w io.Writer, size int, at func(x, y float32) bool) error {
	if size <= 0 {
		return fmt.Errorf("pbm: size must be positive, got %d", size)
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P4\n%d %d\n", size, size); err != nil {
		return err
	}

	rowBytes := (size + 7) / 8
	row := make([]byte, rowBytes)
	denom := float32(size - 1)
	if denom == 0 {
		denom = 1
	}

	for r := 0; r < size; r++ {
		for i := range row {
			row[i] = 0
		}
		yv := -(float32(r)*2/denom - 1)
		for c := 0; c < size; c++ {
			xv := float32(c)*2/denom - 1
			if at(xv, yv) {
				row[c/8] |= 1 << (7 - uint(c%8))
			}
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}

	return bw.Flush()
}
