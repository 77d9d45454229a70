package spatial

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// GeohashPrecisionCluster labels frequent-location clusters (~150 m cells)
const GeohashPrecisionCluster = 7

// EncodeGeohash encodes latitude and longitude into a geohash string.
// precision is clamped to 1..12 characters.
func EncodeGeohash(lat, lon float64, precision int) string {
	precision = min(max(precision, 1), 12)

	latLo, latHi := -90.0, 90.0
	lonLo, lonHi := -180.0, 180.0
	out := make([]byte, 0, precision)

	evenBit := true
	var ch, nbits int
	for len(out) < precision {
		ch <<= 1
		if evenBit {
			mid := (lonLo + lonHi) / 2
			if lon >= mid {
				ch |= 1
				lonLo = mid
			} else {
				lonHi = mid
			}
		} else {
			mid := (latLo + latHi) / 2
			if lat >= mid {
				ch |= 1
				latLo = mid
			} else {
				latHi = mid
			}
		}
		evenBit = !evenBit

		if nbits++; nbits == 5 {
			out = append(out, geohashAlphabet[ch])
			ch, nbits = 0, 0
		}
	}
	return string(out)
}
