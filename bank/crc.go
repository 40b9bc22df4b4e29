package bank

import (
	"hash/crc32"
	"math/bits"
)

// CRC32 computes the media-compatible checksum: reflected CRC-32 with
// polynomial 0xEDB88320 (the ZIP/Ethernet polynomial, Go's stdlib
// crc32.IEEETable), seed 0xFFFFFFFF, final XOR 0xFFFFFFFF, followed by
// an explicit byte-swap of the 32-bit result.
//
// The byte-swap is not cosmetic: it must be applied for the checksum to
// match entries written by the reference C++ driver, which performs
// the same swap explicitly in STM32StorageBank::CRC. Bitwise complement
// commutes with a byte permutation, so swapping the already-complemented
// stdlib result is equivalent to the reference's swap-then-complement
// order.
func CRC32(data []byte) uint32 {
	return bits.ReverseBytes32(crc32.ChecksumIEEE(data))
}
