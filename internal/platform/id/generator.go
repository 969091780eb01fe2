package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs used to tag crawl runs.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return value.String(), nil
}

// Static always returns the same ID; handy for deterministic tests.
type Static string

func (s Static) NewID() (string, error) {
	return string(s), nil
}
