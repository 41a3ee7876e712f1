package services

import (
	"context"
	"fmt"

	"github.com/cretedrive/rental-booking-backend/pkg/reference"
)

// DefaultReferenceAttempts bounds the generate-and-check loop
const DefaultReferenceAttempts = 5

// ReferenceChecker answers whether a reference is taken
type ReferenceChecker interface {
	ReferenceExists(ctx context.Context, reference string) (bool, error)
}

// ReferenceService allocates booking references that are not yet stored.
// The unique constraint on the store still decides; callers retry on ErrDuplicateReference.
type ReferenceService struct {
	checker     ReferenceChecker
	prefix      string
	maxAttempts int
	generate    func(prefix string) (string, error)
}

// NewReferenceService creates a reference allocator
func NewReferenceService(checker ReferenceChecker, prefix string) *ReferenceService {
	return &ReferenceService{
		checker:     checker,
		prefix:      prefix,
		maxAttempts: DefaultReferenceAttempts,
		generate:    reference.Generate,
	}
}

// Allocate returns a reference the store does not know yet
func (s *ReferenceService) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		ref, err := s.generate(s.prefix)
		if err != nil {
			return "", fmt.Errorf("failed to generate reference: %w", err)
		}

		exists, err := s.checker.ReferenceExists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("failed to check reference: %w", err)
		}
		if !exists {
			return ref, nil
		}
	}
	return "", ErrReferenceExhausted
}
