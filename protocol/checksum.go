package protocol

// Sum returns the 8-bit byte sum of data.
//
// A well-formed v3 packet, header included, always sums to zero.
func Sum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// Checksum returns the byte that makes data sum to zero.
//
// The result is the 2's complement of the byte sum, so appending it (or
// storing it in a zeroed checksum field) brings the total to 0 mod 256.
func Checksum(data []byte) byte {
	return ^Sum(data) + 1
}

// argsChecksum computes the v2 argument block checksum.
//
// Unlike v3, v2 does not sum to zero: the checksum is the plain byte sum of
// the command code, the flags, version and size fields, and the data.
func argsChecksum(command uint8, args Args, data []byte) byte {
	sum := command
	sum += args.Flags
	sum += args.CommandVersion
	sum += args.DataSize
	sum += Sum(data)
	return sum
}
