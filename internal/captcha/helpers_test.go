package captcha

import (
	"context"
	"errors"
	"fmt"
)

type memSession struct {
	c       *Challenge
	saves   int
	saveErr error
}

func (m *memSession) Challenge() *Challenge { return m.c }

func (m *memSession) SetChallenge(c Challenge) { m.c = &c }

func (m *memSession) Save(context.Context) error {
	m.saves++
	return m.saveErr
}

type mapSource struct {
	images map[string][]byte
	loads  int
}

func (s *mapSource) Load(_ context.Context, pool string, n int) ([]byte, error) {
	s.loads++
	b, ok := s.images[fmt.Sprintf("%s%d", pool, n)]
	if !ok {
		return nil, errors.New("no such file")
	}
	return b, nil
}

// fullSource serves a distinct payload for every reference in the default pools.
func fullSource() *mapSource {
	s := &mapSource{images: make(map[string][]byte)}
	for i := 1; i <= 10; i++ {
		s.images[fmt.Sprintf("car%d", i)] = []byte(fmt.Sprintf("png:car%d", i))
	}
	for i := 1; i <= 13; i++ {
		s.images[fmt.Sprintf("bicycle%d", i)] = []byte(fmt.Sprintf("png:bicycle%d", i))
	}
	return s
}

func testGenConfig(seed uint64) GeneratorConfig {
	return GeneratorConfig{
		Size:        9,
		Probability: 0.5,
		Primary:     Pool{Name: "car", Size: 10},
		Secondary:   Pool{Name: "bicycle", Size: 13},
		Target:      Primary,
		Seed:        seed,
	}
}

func challengeOf(cats ...Category) Challenge {
	items := make([]Item, len(cats))
	for i, c := range cats {
		pool := "bicycle"
		if c == Primary {
			pool = "car"
		}
		items[i] = Item{Position: i, Category: c, Pool: pool, Number: i%10 + 1}
	}
	return Challenge{Items: items, Target: Primary}
}
