package entity

import (
	"fmt"
	"strings"
)

// Status is the lifecycle flag shared by products, clients and order headers.
type Status string

const (
	StatusActive   Status = "A"
	StatusInactive Status = "I"
)

// ParseStatus accepts the stored codes and their long names, case-insensitive.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "a", "active":
		return StatusActive, nil
	case "i", "inactive":
		return StatusInactive, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}
