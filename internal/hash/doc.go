// Package hash provides the CRC32-Castagnoli checksum used for snapshot
// frames and S3 upload integrity.
package hash
