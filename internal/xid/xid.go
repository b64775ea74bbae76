package xid

import "github.com/google/uuid"

// New returns a prefixed random identifier such as "ord_4f1c...".
func New(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
