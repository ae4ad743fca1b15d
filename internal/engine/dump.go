package engine

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/sequence/internal/interval"
	"github.com/roach88/sequence/internal/ir"
)

const maxTimeDigits = 32

// Write dumps the compiled schedule: a name line, then one line per
// definition prefixed with its begin time. Groups render as indented
// { } blocks; closed actions are marked "(!oe)".
func (s *Scheduler) Write(w io.Writer, indent int) error {
	s.recompute()

	decimals := s.quant.Decimals()
	width := decimals + 4
	if width > maxTimeDigits {
		return fmt.Errorf("precision %g needs %d digits, max %d", s.quant.Precision, width, maxTimeDigits)
	}

	bw := bufio.NewWriter(w)
	pad := strings.Repeat(" ", max(indent, 0))
	fmt.Fprintf(bw, "%s%s:\n", pad, s.name)

	extra := 1
	for i := range s.defs {
		def := &s.defs[i]
		fmt.Fprintf(bw, "%s%*.*f", pad, width, decimals, s.quant.Time(def.ActualBeginTime))

		switch def.Type {
		case ir.DefNative:
			iv, ok := s.arena.Get(def.Slot)
			if !ok {
				return fmt.Errorf("def %d: interval slot %d released", i, def.Slot)
			}
			fmt.Fprintf(bw, "%s%s", spaces(extra), interval.Describe(iv))
			if !iv.OpenEnded() {
				bw.WriteString(" (!oe)")
			}
		case ir.DefExternal:
			fmt.Fprintf(bw, "%s*%s", spaces(extra), def.ExtName)
			if def.ExtDuration != 0 {
				fmt.Fprintf(bw, " dur %.6g", def.ExtDuration)
			}
			if !def.ExtOpenEnded {
				bw.WriteString(" (!oe)")
			}
		case ir.DefPushLevel:
			fmt.Fprintf(bw, "%s{", spaces(extra))
			extra += 2
		case ir.DefPopLevel:
			extra -= 2
			fmt.Fprintf(bw, "%s}", spaces(extra))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func spaces(n int) string {
	return strings.Repeat(" ", max(n, 0))
}
