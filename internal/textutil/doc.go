// Package textutil holds small string helpers for building output file
// names from source media paths.
package textutil
