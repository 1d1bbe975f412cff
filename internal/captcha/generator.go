package captcha

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

type GeneratorConfig struct {
	Size        int
	Probability float64
	Primary     Pool
	Secondary   Pool
	Target      Category
	// Seed fixes the random sequence. Zero seeds from crypto/rand.
	Seed uint64
	Now  func() time.Time
}

// Generator draws challenges from a seedable source. It is safe for
// concurrent use.
type Generator struct {
	cfg GeneratorConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("challenge size must be positive, got %d", cfg.Size)
	}
	if cfg.Probability < 0 || cfg.Probability > 1 {
		return nil, fmt.Errorf("probability must be within [0,1], got %v", cfg.Probability)
	}
	for _, p := range []Pool{cfg.Primary, cfg.Secondary} {
		if p.Name == "" || p.Size <= 0 {
			return nil, fmt.Errorf("pool %q must have a name and a positive size", p.Name)
		}
	}
	if cfg.Target != Primary && cfg.Target != Secondary {
		return nil, fmt.Errorf("unknown target category %v", cfg.Target)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	seed := cfg.Seed
	if seed == 0 {
		var b [8]byte
		if _, err := crand.Read(b[:]); err != nil {
			return nil, fmt.Errorf("failed to seed generator: %w", err)
		}
		seed = binary.LittleEndian.Uint64(b[:])
	}

	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

func (g *Generator) Generate() Challenge {
	g.mu.Lock()
	defer g.mu.Unlock()

	items := make([]Item, g.cfg.Size)
	for i := range items {
		cat, pool := Secondary, g.cfg.Secondary
		if g.rng.Float64() < g.cfg.Probability {
			cat, pool = Primary, g.cfg.Primary
		}
		items[i] = Item{
			Position: i,
			Category: cat,
			Pool:     pool.Name,
			Number:   g.rng.IntN(pool.Size) + 1,
		}
	}

	return Challenge{
		ID:        uuid.New().String(),
		Items:     items,
		Target:    g.cfg.Target,
		CreatedAt: g.cfg.Now().UTC(),
	}
}
