package export

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"captioner/internal/caption"
	"captioner/internal/compositor"
)

// WriteSRT renders one numbered cue per group.
func WriteSRT(w io.Writer, groups []caption.Group, textCase compositor.TextCase) error {
	bw := bufio.NewWriter(w)
	for i, g := range groups {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n", i+1, srtTime(g.Start()), srtTime(g.End()), textCase.Apply(g.Text()))
	}
	return bw.Flush()
}

func srtTime(sec float64) string {
	d := seconds(sec)
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, int(d/time.Millisecond))
}
