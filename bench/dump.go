package bench

import "io"

const hexdigits = "0123456789abcdef"

// dumpLineWidth is the number of bytes rendered per hex dump line.
const dumpLineWidth = 16

// Dump writes data to w as lowercase hex, 16 bytes per line with an extra
// space between the two groups of 8.
func Dump(w io.Writer, data []byte) error {
	// "xx " * 16 plus the group gap and newline.
	var line [dumpLineWidth*3 + 1]byte

	for off := 0; off < len(data); off += dumpLineWidth {
		end := min(off+dumpLineWidth, len(data))
		n := 0
		for i, b := range data[off:end] {
			if i > 0 {
				line[n] = ' '
				n++
				if i == dumpLineWidth/2 {
					line[n] = ' '
					n++
				}
			}
			line[n] = hexdigits[b>>4]
			line[n+1] = hexdigits[b&0x0f]
			n += 2
		}
		line[n] = '\n'
		n++
		if _, err := w.Write(line[:n]); err != nil {
			return err
		}
	}
	return nil
}
