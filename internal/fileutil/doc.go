// Package fileutil holds small filesystem helpers shared by the exporters.
package fileutil
