// Package snapshot stores the initial and final center matrices of a run in
// a single checksummed, optionally compressed frame.
//
// Frame layout, little endian:
//
//	magic      [4]byte "DCSN"
//	version    uint8
//	codec      uint8
//	reserved   uint16
//	k          uint32
//	dim        uint32
//	iterations uint32
//	checksum   uint32  CRC32C of the uncompressed payload
//	rawSize    uint32
//	packedSize uint32  0 when the payload is stored uncompressed
//	payload    initial centers then final centers, row-major float64
package snapshot
