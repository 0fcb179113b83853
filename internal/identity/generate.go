package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Generator interface {
	MachineID() (string, error)
	DeviceID() string
	SqmID() string
}

type RandomGenerator struct{}

// MachineID returns 32 random bytes encoded as lowercase hex.
func (RandomGenerator) MachineID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (RandomGenerator) DeviceID() string {
	return uuid.NewString()
}

// SqmID returns a dashless upper-case UUID wrapped in curly braces.
func (RandomGenerator) SqmID() string {
	return "{" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")) + "}"
}
