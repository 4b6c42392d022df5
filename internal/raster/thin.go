package raster

// Thin reduces every foreground region to a one-pixel-wide 8-connected
// skeleton using Zhang-Suen iterative thinning. The input is not modified.
func Thin(m *Mask) *Mask {
	out := m.Clone()
	var del []int
	for {
		changed := false
		for pass := 0; pass < 2; pass++ {
			del = del[:0]
			for y := 0; y < out.Height; y++ {
				for x := 0; x < out.Width; x++ {
					if out.Pix[y*out.Width+x] && deletable(out, x, y, pass) {
						del = append(del, y*out.Width+x)
					}
				}
			}
			for _, i := range del {
				out.Pix[i] = false
			}
			if len(del) > 0 {
				changed = true
			}
		}
		if !changed {
			return out
		}
	}
}

// deletable applies the Zhang-Suen conditions. Neighbours p2..p9 run
// clockwise from north.
func deletable(m *Mask, x, y, pass int) bool {
	p := [8]bool{
		m.At(x, y-1),   // p2
		m.At(x+1, y-1), // p3
		m.At(x+1, y),   // p4
		m.At(x+1, y+1), // p5
		m.At(x, y+1),   // p6
		m.At(x-1, y+1), // p7
		m.At(x-1, y),   // p8
		m.At(x-1, y-1), // p9
	}

	b := 0
	for _, v := range p {
		if v {
			b++
		}
	}
	if b < 2 || b > 6 {
		return false
	}

	a := 0
	for i := 0; i < 8; i++ {
		if !p[i] && p[(i+1)%8] {
			a++
		}
	}
	if a != 1 {
		return false
	}

	p2, p4, p6, p8 := p[0], p[2], p[4], p[6]
	if pass == 0 {
		return !(p2 && p4 && p6) && !(p4 && p6 && p8)
	}
	return !(p2 && p4 && p8) && !(p2 && p6 && p8)
}
