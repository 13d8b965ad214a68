package billing

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GenerateInvoiceNo builds a 23 digit number: local timestamp to the second,
// three digits of milliseconds, then six random digits.
func GenerateInvoiceNo(now time.Time) string {
	prefix := now.Format("20060102150405") + fmt.Sprintf("%03d", now.Nanosecond()/int(time.Millisecond))
	return prefix + fmt.Sprintf("%06d", rand.IntN(1000000))
}
