package hash

import (
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the Castagnoli checksum stored in snapshot frame headers
// and sent as the S3 ChecksumCRC32C of uploaded blobs.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}
