package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// Fingerprint computes the BLAKE3 hash of the config file. The daemon
// logs it at startup so an operator can tell from the logs alone which
// configuration a running instance was started with.
func Fingerprint(configPath string) (string, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyFingerprint verifies a config file against an expected BLAKE3 hash.
func VerifyFingerprint(configPath, expected string) error {
	actual, err := Fingerprint(configPath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}

	if actual != expected {
		return fmt.Errorf("config fingerprint mismatch: expected %s, got %s", expected, actual)
	}

	return nil
}
