// Package engine converts values between units of the same category.
//
// Every unit carries an affine transform to its category base unit
// (base = v*factor + offset). A conversion maps the input into the base unit
// and back out through the target unit's inverse transform:
//
//	base   = v*from.Factor + from.Offset
//	result = (base - to.Offset) / to.Factor
//
// Convert is the pure arithmetic. Engine resolves unit names through a
// Catalog and appends each successful conversion to the history log; a
// failed history write never discards a computed result.
package engine
