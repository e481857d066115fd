package pool

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrintCondition writes a diagnostic summary of the pool's occupancy.
func (p *Pool) PrintCondition(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.slab == nil {
		fmt.Fprintln(w, "Pool not initialized.")
		return
	}

	pr := message.NewPrinter(language.English)
	free := p.count - p.allocated
	fmt.Fprintf(w, "Pool<%d>:\n", p.blockSize)
	pr.Fprintf(w, "  pool size:  %d bytes (%d blocks)\n", p.count*p.blockSize, p.count)
	pr.Fprintf(w, "  free space: %d bytes (%d blocks)\n", free*p.blockSize, free)
	pr.Fprintf(w, "  used space: %d bytes (%d blocks)\n\n", p.allocated*p.blockSize, p.allocated)
}
