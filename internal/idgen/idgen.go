// Package idgen generates record identifiers and API key secrets.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the character set for log ids and generated secrets.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// LogIDLength is the number of random characters in a log id.
var LogIDLength = 12

// SecretLength is the number of random characters in a generated API key.
var SecretLength = 40

// SecretPrefix is prepended to generated API keys.
var SecretPrefix = "sk-"

// NewID returns a random UUID for cookies and API keys.
func NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id.String(), nil
}

// NewLogID returns a short id for request logs. Log keys already lead with
// the timestamp, so the id only has to separate logs within one millisecond.
func NewLogID() (string, error) {
	id, err := nanoid.Generate(Alphabet, LogIDLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}

// NewSecret returns a fresh API key value.
func NewSecret() (string, error) {
	s, err := nanoid.Generate(Alphabet, SecretLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return SecretPrefix + s, nil
}
