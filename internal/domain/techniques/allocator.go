package techniques

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// ErrNameSpaceExhausted is returned when the allocator cannot produce a unique
// name within its retry bound. Fatal for the run.
var ErrNameSpaceExhausted = errors.New("name space exhausted")

// allocRetries bounds regeneration attempts on a collision.
const allocRetries = 64

const randomAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NameAllocator hands out generated identifiers for one pipeline run. It owns
// the used-name set, so every name it produces is unique within the run and
// disjoint from the exclusion patterns. Owned by a single run and passed into
// the passes through the Context; independent runs never share one.
type NameAllocator struct {
	rng      *rand.Rand
	pattern  m.NamePattern
	excluded []string
	counter  int
	used     map[string]struct{}
}

// NewNameAllocator builds an allocator for the configured name pattern.
func NewNameAllocator(cfg m.Config, rng *rand.Rand) *NameAllocator {
	return &NameAllocator{
		rng:      rng,
		pattern:  cfg.NamePattern,
		excluded: cfg.ExcludedPatterns,
		used:     make(map[string]struct{}),
	}
}

// Reserve marks a name as taken so Fresh never returns it. Original
// identifiers that survive renaming are reserved up front.
func (a *NameAllocator) Reserve(name string) {
	a.used[name] = struct{}{}
}

// Fresh returns a new identifier unique within the run. On a collision with a
// used name, a reserved word, or an exclusion pattern it regenerates up to the
// retry bound, then fails with ErrNameSpaceExhausted.
func (a *NameAllocator) Fresh() (string, error) {
	for attempt := 0; attempt < allocRetries; attempt++ {
		name := a.generate()
		if a.taken(name) {
			continue
		}

		a.used[name] = struct{}{}

		return name, nil
	}

	return "", fmt.Errorf("%w after %d attempts (pattern %s)", ErrNameSpaceExhausted, allocRetries, a.pattern)
}

func (a *NameAllocator) taken(name string) bool {
	if _, ok := a.used[name]; ok {
		return true
	}

	if isReservedName(name) {
		return true
	}

	for _, pattern := range a.excluded {
		if pattern != "" && strings.Contains(name, pattern) {
			return true
		}
	}

	return false
}

func (a *NameAllocator) generate() string {
	switch a.pattern {
	case m.NameHex:
		a.counter++
		return fmt.Sprintf("_0x%04x", a.counter)

	case m.NameSequential:
		a.counter++
		return fmt.Sprintf("_v%d", a.counter)

	default: // random alphanumeric, letter-first
		length := 6 + a.rng.Intn(7)

		b := make([]byte, length)
		for i := range b {
			b[i] = randomAlphabet[a.rng.Intn(len(randomAlphabet))]
		}

		if b[0] >= '0' && b[0] <= '9' {
			return "_" + string(b)
		}

		return string(b)
	}
}
