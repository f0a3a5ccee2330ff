// Package blend implements Porter-Duff compositing operators and the W3C
// blend modes on premultiplied RGBA8 pixels.
//
// References:
//   - Porter-Duff: "Compositing Digital Images" (1984)
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

// Func is the signature for blend operations.
// All values are premultiplied alpha, 0-255.
//
// Returns the resulting color after compositing source over destination.
type Func func(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte)

// Op is a Porter-Duff compositing operator.
type Op uint8

// Porter-Duff operators used by the pipeline.
const (
	OpSourceOver      Op = iota // S + D*(1-Sa)
	OpSource                    // S
	OpDestinationOver           // S*(1-Da) + D
	OpDestinationIn             // D*Sa
	OpDestinationOut            // D*(1-Sa)
	OpSourceAtop                // S*Da + D*(1-Sa)
	OpClear                     // 0
)

// ForOp returns the blend function for a Porter-Duff operator.
// Unknown operators yield source-over.
func ForOp(op Op) Func {
	switch op {
	case OpSource:
		return sourceCopy
	case OpDestinationOver:
		return destinationOver
	case OpDestinationIn:
		return destinationIn
	case OpDestinationOut:
		return destinationOut
	case OpSourceAtop:
		return sourceAtop
	case OpClear:
		return clearOp
	default:
		return SourceOver
	}
}

// SourceOver composites source over destination.
// Formula: S + D * (1 - Sa)
func SourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return addDiv255(sr, mulDiv255(dr, invSa)),
		addDiv255(sg, mulDiv255(dg, invSa)),
		addDiv255(sb, mulDiv255(db, invSa)),
		addDiv255(sa, mulDiv255(da, invSa))
}

func sourceCopy(sr, sg, sb, sa, _, _, _, _ byte) (byte, byte, byte, byte) {
	return sr, sg, sb, sa
}

// destinationOver paints source behind destination.
// Formula: S * (1 - Da) + D
func destinationOver(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invDa := 255 - da
	return addDiv255(mulDiv255(sr, invDa), dr),
		addDiv255(mulDiv255(sg, invDa), dg),
		addDiv255(mulDiv255(sb, invDa), db),
		addDiv255(mulDiv255(sa, invDa), da)
}

// destinationIn keeps destination where source is opaque.
// Formula: D * Sa
func destinationIn(_, _, _, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	return mulDiv255(dr, sa), mulDiv255(dg, sa), mulDiv255(db, sa), mulDiv255(da, sa)
}

// destinationOut keeps destination where source is transparent.
// Formula: D * (1 - Sa)
func destinationOut(_, _, _, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return mulDiv255(dr, invSa), mulDiv255(dg, invSa), mulDiv255(db, invSa), mulDiv255(da, invSa)
}

// sourceAtop paints source only where destination exists.
// Formula: S * Da + D * (1 - Sa)
func sourceAtop(sr, sg, sb, sa, dr, dg, db, da byte) (byte, byte, byte, byte) {
	invSa := 255 - sa
	return addDiv255(mulDiv255(sr, da), mulDiv255(dr, invSa)),
		addDiv255(mulDiv255(sg, da), mulDiv255(dg, invSa)),
		addDiv255(mulDiv255(sb, da), mulDiv255(db, invSa)),
		da
}

func clearOp(_, _, _, _, _, _, _, _ byte) (byte, byte, byte, byte) {
	return 0, 0, 0, 0
}
