package backend

import (
	"bufio"
	"bytes"
)

// pdfHeaderWindow matches the leniency of common readers, which accept the
// header anywhere in the first KiB.
const pdfHeaderWindow = 1024

var pdfMagic = []byte("%PDF-")

// looksLikePDF peeks at the start of r without consuming it.
func looksLikePDF(r *bufio.Reader) bool {
	head, _ := r.Peek(pdfHeaderWindow)
	return bytes.Contains(head, pdfMagic)
}
