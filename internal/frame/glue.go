package frame

import "regexp"

// GlueTarget selects which side of a match a continuation line attaches to
// (spec §4.3.3).
type GlueTarget int

const (
	GluePrevious GlueTarget = iota
	GlueNext
)

// Glue concatenates consecutive delimited frames into one logical frame
// when their content matches On: lines matching the pattern are
// continuations of whichever neighbor To names.
type Glue struct {
	On *regexp.Regexp
	To GlueTarget
}
