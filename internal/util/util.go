package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/segmentio/ksuid"
)

func NewSHA256(data string) string {
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:])
}

func GetID() string {
	id := ksuid.New()
	return hex.EncodeToString(id.Bytes())
}

// RemoveDuplicates returns the list with duplicates dropped, order preserved.
func RemoveDuplicates(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, item := range list {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
