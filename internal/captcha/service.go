package captcha

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Session is the per-visitor slot holding at most one active challenge.
type Session interface {
	Challenge() *Challenge
	SetChallenge(Challenge)
	Save(ctx context.Context) error
}

// ReplayGuard remembers which challenges have already been answered.
type ReplayGuard interface {
	// Consume marks id as used and reports whether this was its first use.
	Consume(ctx context.Context, id string) (bool, error)
}

type Service struct {
	gen    *Generator
	images ImageSource
	guard  ReplayGuard
	log    *zap.Logger
}

// NewService wires the challenge operations. A nil guard disables replay
// detection, which is only safe when sessions live server-side.
func NewService(gen *Generator, images ImageSource, guard ReplayGuard, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{gen: gen, images: images, guard: guard, log: log}
}

// Ensure returns the session's challenge, generating and saving one first
// when the session has none.
func (s *Service) Ensure(ctx context.Context, sess Session) (*Challenge, error) {
	if c := sess.Challenge(); c != nil {
		return c, nil
	}
	return s.Regenerate(ctx, sess)
}

// Regenerate replaces the session's challenge with a fresh one.
func (s *Service) Regenerate(ctx context.Context, sess Session) (*Challenge, error) {
	sess.SetChallenge(s.gen.Generate())
	if err := sess.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess.Challenge(), nil
}

func (s *Service) FetchImage(ctx context.Context, sess Session, rawIndex string) ([]byte, error) {
	c, err := s.Ensure(ctx, sess)
	if err != nil {
		return nil, err
	}

	idx, err := ParseIndex(rawIndex, c.Len())
	if err != nil {
		return nil, err
	}

	it := c.Item(idx)
	data, err := s.images.Load(ctx, it.Pool, it.Number)
	if err != nil {
		s.log.Error("❌ Error reading CAPTCHA image",
			zap.Int("index", idx),
			zap.String("reference", it.Reference()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrResourceUnavailable, it.Reference(), err)
	}
	return data, nil
}

// Verify checks selected against the session's challenge. Each challenge
// can be answered once; a second answer, from a stale cookie for instance,
// is rejected with ReasonReplayed. It never mutates the session beyond lazy
// initialization; callers regenerate afterwards.
func (s *Service) Verify(ctx context.Context, sess Session, selected []int) (SubmissionResult, error) {
	c, err := s.Ensure(ctx, sess)
	if err != nil {
		return SubmissionResult{}, err
	}

	if s.guard != nil {
		first := false
		if c.ID != "" {
			first, err = s.guard.Consume(ctx, c.ID)
			if err != nil {
				return SubmissionResult{}, fmt.Errorf("failed to record challenge: %w", err)
			}
		}
		if !first {
			s.log.Warn("♻️  Challenge answered twice", zap.String("challenge", c.ID))
			return SubmissionResult{Accepted: false, Reason: ReasonReplayed}, nil
		}
	}

	return c.Check(selected), nil
}
