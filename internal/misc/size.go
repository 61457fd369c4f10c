package misc

import (
	"fmt"
	"math"
)

var sizeSuffixes = []string{"B", "kiB", "MiB", "GiB", "TiB"}

// HumanSize formats a byte count with a binary prefix, e.g. 1536 -> "1.50 kiB".
func HumanSize(n int64) string {
	if n < 0 {
		panic(fmt.Sprintf("misc: negative size %d", n))
	}
	if n == 0 {
		return "0 B"
	}

	exponent := int(math.Floor(math.Log2(float64(n))/10)) * 10
	idx := exponent / 10
	if idx >= len(sizeSuffixes) {
		idx = len(sizeSuffixes) - 1
		exponent = idx * 10
	}

	return fmt.Sprintf("%.2f %s", float64(n)/math.Exp2(float64(exponent)), sizeSuffixes[idx])
}
