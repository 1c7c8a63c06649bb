package redis

import (
	"strconv"
	"time"
)

const (
	// KeyPrefixSlot is the prefix for snapshot slot keys
	KeyPrefixSlot = "skylog:slot:"
	// keySuffixCorrupt separates a slot key from its archived copies
	keySuffixCorrupt = ":corrupt:"
)

// SlotKey returns the Redis key holding the snapshot for a slot name
func SlotKey(name string) string {
	return KeyPrefixSlot + name
}

// ArchiveKey returns the key an undecodable snapshot is moved aside to
func ArchiveKey(name string, at time.Time) string {
	return SlotKey(name) + keySuffixCorrupt + strconv.FormatInt(at.UnixNano(), 10)
}

// ArchivePattern matches every archived snapshot of a slot (for SCAN)
func ArchivePattern(name string) string {
	return SlotKey(name) + keySuffixCorrupt + "*"
}
