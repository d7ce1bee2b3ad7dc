package service

import (
	"crypto/rand"
	"fmt"
	"time"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReferenceNumber builds a human-readable quote reference:
// QT-<yyyymmddHHMMSS>-<6 random alphanumerics>.
func NewReferenceNumber(now time.Time) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return fmt.Sprintf("QT-%s-%s", now.Format("20060102150405"), string(buf))
}
