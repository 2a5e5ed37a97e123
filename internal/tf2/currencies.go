// Package tf2 holds the Team Fortress 2 currency model shared across the bot:
// the (keys, metal) amount type, conversions to and from the scrap unit used
// for all profit arithmetic, and the canonical pure-currency SKUs.
package tf2

import (
	"fmt"
	"math"
)

// ScrapPerRefined is the number of scrap metal in one refined metal.
const ScrapPerRefined = 9

// Currencies is an amount expressed in the two-unit TF2 currency: whole keys
// plus refined metal. Metal is fractional; a scrap is 1/9 refined and a
// weapon is worth half a scrap (1/18 refined).
type Currencies struct {
	Keys  int     `json:"keys"`
	Metal float64 `json:"metal"`
}

// ToScrap converts the amount into scrap given a metal-per-key rate. The
// result may be fractional (half-scrap) and is not rounded here; rounding
// happens once, on the final aggregate figures.
func (c Currencies) ToScrap(rate float64) float64 {
	return (float64(c.Keys)*rate + c.Metal) * ScrapPerRefined
}

// IsZero reports whether the amount is exactly zero in both units.
func (c Currencies) IsZero() bool {
	return c.Keys == 0 && c.Metal == 0
}

// String renders the amount the way traders write it, e.g. "5 keys, 3.33 ref".
func (c Currencies) String() string {
	switch {
	case c.Keys == 0:
		return fmt.Sprintf("%g ref", c.Metal)
	case c.Metal == 0:
		return fmt.Sprintf("%d keys", c.Keys)
	default:
		return fmt.Sprintf("%d keys, %g ref", c.Keys, c.Metal)
	}
}

// ScrapFromRefined converts a refined-metal amount into scrap, rounded to the
// nearest half-scrap. Half-scrap precision is required because weapons trade
// at 1/18 refined.
func ScrapFromRefined(ref float64) float64 {
	return math.Round(ref*ScrapPerRefined*2) / 2
}

// RefinedFromScrap converts a scrap amount back into refined metal, truncated
// to the 1/18-refined grid that in-game metal can actually represent.
func RefinedFromScrap(scrap float64) float64 {
	return math.Round(scrap*2) / (2 * ScrapPerRefined)
}
