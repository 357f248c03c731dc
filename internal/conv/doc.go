// Package conv provides checked integer conversions for fixed-width
// header fields.
//
// Frame headers store counts as uint32. Writers use IntToUint32 so an
// oversized matrix fails instead of wrapping, and readers use Uint32ToInt
// and Mul to size buffers from untrusted bytes.
package conv
