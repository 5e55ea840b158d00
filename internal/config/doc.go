// Package config loads, normalizes, and validates cups-pdf configuration data.
//
// The backend runs under cupsd with a minimal environment, so configuration
// comes from a single TOML file (CUPS_PDF_CONFIG or /etc/cups/cups-pdf.toml)
// decoded on top of repository defaults. A missing file is not an error: the
// defaults reproduce the behavior of the stock backend.
//
// Always obtain settings through this package so downstream code receives
// parsed file modes, canonical log formats, and clear validation errors.
package config
