package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator mints ULID strings. IDs produced within the same millisecond
// stay lexicographically increasing, so sorting tape entries or journal
// rows by ID is sorting by creation time.
type Generator struct {
	mu   sync.Mutex
	mono *ulid.MonotonicEntropy
}

// NewGenerator builds a generator over the given entropy source. A nil src
// gets a crypto-seeded PRNG, which is what production wants; tests pass a
// fixed seed for reproducible IDs.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		var seed int64
		_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		src = rand.NewSource(seed)
	}
	return &Generator{mono: ulid.Monotonic(rand.New(src), 0)}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.mono)
	if err != nil {
		// Only possible if time goes backwards or entropy fails.
		panic(err)
	}
	return u.String()
}

var defaultGen = NewGenerator(nil)

// New mints an ID from the process-wide generator.
func New() string {
	return defaultGen.New()
}
