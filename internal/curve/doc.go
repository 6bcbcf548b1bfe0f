// Package curve implements constant-product pricing over the virtual reserves
// of a bonding curve and the reserve transitions applied by trades.
//
// Quotes:
//
//	buy  cost     = floor(a * vSol / (vTok - a)) + 1
//	sell proceeds = floor(a * vSol / (vTok + a))
//
// Buys always round in the curve's favor. A buy quote is only trusted through
// QuoteBuyChecked, which refuses amounts that would drain the virtual token
// reserve. Real reserves move by the same deltas as virtual reserves; fees are
// booked into separate pools by package fees and never mixed into reserves.
package curve
