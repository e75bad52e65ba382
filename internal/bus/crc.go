// internal/bus/crc.go
package bus

// crc8 computes CRC8 DVB-S2 (polynomial 0xD5, init 0).
func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc = crc8Update(crc, b)
	}
	return crc
}

func crc8Update(crc, b byte) byte {
	crc ^= b
	for i := 0; i < 8; i++ {
		if crc&0x80 != 0 {
			crc = crc<<1 ^ 0xD5
		} else {
			crc <<= 1
		}
	}
	return crc
}
