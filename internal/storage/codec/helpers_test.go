package codec

import (
	"encoding/binary"
	"hash/crc32"
)

func putChecksum(frame []byte) {
	binary.BigEndian.PutUint32(frame[6:10], crc32.ChecksumIEEE(frame[headerSize:]))
}
