// Package captcha generates image-selection challenges and checks answers
// against them.
package captcha

import (
	"fmt"
	"time"
)

type Category uint8

const (
	Primary Category = iota
	Secondary
)

func (c Category) String() string {
	switch c {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// ParseCategory accepts the names produced by String.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "primary":
		return Primary, nil
	case "secondary":
		return Secondary, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if c != Primary && c != Secondary {
		return nil, fmt.Errorf("unknown category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Pool is a named collection of images numbered 1..Size.
type Pool struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// Item is one tile of a challenge.
type Item struct {
	Position int      `json:"position"`
	Category Category `json:"category"`
	Pool     string   `json:"pool"`
	Number   int      `json:"number"`
}

// Reference identifies the image behind an item, e.g. "car7".
func (it Item) Reference() string {
	return fmt.Sprintf("%s%d", it.Pool, it.Number)
}

// Challenge is one issued grid. ID is unique per challenge and is consumed
// by the first answer submitted against it.
type Challenge struct {
	ID        string    `json:"id"`
	Items     []Item    `json:"items"`
	Target    Category  `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Challenge) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// Item returns the tile at position i. Callers validate i with ParseIndex.
func (c *Challenge) Item(i int) Item {
	return c.Items[i]
}

// Answer returns the positions the visitor must select, ascending.
func (c *Challenge) Answer() []int {
	var out []int
	for _, it := range c.Items {
		if it.Category == c.Target {
			out = append(out, it.Position)
		}
	}
	return out
}

type Reason string

const (
	ReasonSent           Reason = "sent"
	ReasonWrongChallenge Reason = "wrong_challenge"
	ReasonReplayed       Reason = "replayed"
)

type SubmissionResult struct {
	Accepted bool   `json:"accepted"`
	Reason   Reason `json:"reason"`
}

// Check compares selected against the answer as sets. Order and duplicates
// in selected do not matter.
func (c *Challenge) Check(selected []int) SubmissionResult {
	answer := make(map[int]struct{})
	for _, p := range c.Answer() {
		answer[p] = struct{}{}
	}

	picked := make(map[int]struct{}, len(selected))
	for _, p := range selected {
		picked[p] = struct{}{}
	}

	wrong := SubmissionResult{Accepted: false, Reason: ReasonWrongChallenge}
	if len(picked) != len(answer) {
		return wrong
	}
	for p := range picked {
		if _, ok := answer[p]; !ok {
			return wrong
		}
	}
	return SubmissionResult{Accepted: true, Reason: ReasonSent}
}
