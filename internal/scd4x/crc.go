package scd4x

// crc8 computes the Sensirion CRC-8 (polynomial 0x31, init 0xFF) used
// to protect every 2-byte word on the sensor bus.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
