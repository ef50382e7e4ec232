package vpk

import (
	"fmt"
	"hash/crc32"
	"io"
)

// Checksum returns the CRC-32 (IEEE) of data, as stored in directory entries.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// VerifyChecksum returns ErrIntegrity if data does not hash to want.
func VerifyChecksum(data []byte, want uint32) error {
	if got := Checksum(data); got != want {
		return fmt.Errorf("%w: expected 0x%08X, got 0x%08X", ErrIntegrity, want, got)
	}
	return nil
}

// ChecksumReader streams r through CRC-32 (IEEE) and returns the checksum and
// the number of bytes read.
func ChecksumReader(r io.Reader) (uint32, int64, error) {
	h := crc32.NewIEEE()
	n, err := io.Copy(h, r)
	if err != nil {
		return 0, n, err
	}
	return h.Sum32(), n, nil
}
