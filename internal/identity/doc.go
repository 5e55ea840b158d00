// Package identity resolves a print job's user name to the numeric ids and
// home directory the delivered file must belong to.
package identity
