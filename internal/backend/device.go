package backend

import (
	"fmt"
	"io"
	"strings"

	"cupspdf/internal/config"
)

// DeviceLine renders the discovery line cupsd expects from a backend run
// without arguments:
//
//	device-class device-uri "device-make-and-model" "device-info" "device-id"
func DeviceLine(dev config.Device) string {
	description := dev.Description
	if description == "" {
		description = dev.Name
	}
	return fmt.Sprintf("%s %s %s %s %s",
		dev.Scheme, dev.URI, quote(dev.Name), quote(description), quote(dev.MakeModel))
}

// Announce writes the discovery line followed by a newline.
func Announce(w io.Writer, dev config.Device) error {
	_, err := io.WriteString(w, DeviceLine(dev)+"\n")
	return err
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")

func quote(value string) string {
	return `"` + quoteReplacer.Replace(value) + `"`
}
