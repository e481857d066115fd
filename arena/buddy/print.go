package buddy

import (
	"fmt"
	"io"
	"unsafe"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrintCondition writes a diagnostic dump of the engine's free table: one
// line per non-empty (k, i) list plus free/used byte totals.
func (e *Engine) PrintCondition(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.region == nil {
		fmt.Fprintln(w, "Pool not initialized.")
		return
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(w, "Pool address: %p\n", unsafe.Pointer(&e.region[0]))
	p.Fprintf(w, "Pool size:  %d bytes.\n", uint64(1)<<e.cfg.K)
	fmt.Fprintf(w, "Free superblocks of type (k,i):\n")

	var freeSpace uint64
	for k := range e.freeBlocks {
		for i := range e.freeBlocks[k] {
			head := &e.freeBlocks[k][i]
			var count uint64
			for s := head.next; s != head; s = s.next {
				count++
			}
			if count != 0 {
				fmt.Fprintf(w, " (%d,%d): %d\n", k, i, count)
			}
			freeSpace += count * (uint64(1)<<k - uint64(1)<<i)
		}
	}

	p.Fprintf(w, "Free space: %d bytes.\n", freeSpace)
	p.Fprintf(w, "Used space: %d bytes.\n\n", uint64(1)<<e.cfg.K-freeSpace)
}
