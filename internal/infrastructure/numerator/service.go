// Package numerator implements document auto-numbering on top of a
// numerator.Store. It implements core/numerator.Generator.
//
// Numbers are derived from what is already stored: there is no counter table
// and no in-process lock. Uniqueness is the store's job (a unique index), the
// service only proposes candidates and retries a bounded number of times.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"billing/internal/core/apperror"
	corenumerator "billing/internal/core/numerator"
	"billing/pkg/logger"
)

var tracer = otel.Tracer("billing/numerator")

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// Options configures the Service. Zero values fall back to defaults.
type Options struct {
	// Org is used for document types missing from Types
	Org string

	// Types overrides numbering per document type
	Types map[corenumerator.DocumentType]corenumerator.Config

	// MaxAttempts bounds candidates per allocation (default 5)
	MaxAttempts int

	// Location is the business time zone used to pick the fiscal year (default UTC)
	Location *time.Location

	// Metrics is optional
	Metrics *Metrics

	// Now is the clock used when a request has no AsOf
	Now func() time.Time
}

// Service allocates document numbers.
type Service struct {
	store       corenumerator.Store
	types       map[corenumerator.DocumentType]corenumerator.Config
	maxAttempts int
	loc         *time.Location
	metrics     *Metrics
	now         func() time.Time
}

// New creates a numerator service reading existing numbers from store.
func New(store corenumerator.Store, opts Options) *Service {
	s := &Service{
		store:       store,
		types:       make(map[corenumerator.DocumentType]corenumerator.Config, len(corenumerator.DocumentTypes)),
		maxAttempts: opts.MaxAttempts,
		loc:         opts.Location,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = corenumerator.DefaultMaxAttempts
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, dt := range corenumerator.DocumentTypes {
		s.types[dt] = corenumerator.DefaultConfig(dt, opts.Org)
	}
	for dt, cfg := range opts.Types {
		s.types[dt] = cfg
	}
	return s
}

// Config returns the numbering configuration for docType.
func (s *Service) Config(docType corenumerator.DocumentType) (corenumerator.Config, error) {
	cfg, ok := s.types[docType]
	if !ok {
		return corenumerator.Config{}, apperror.NewValidation(fmt.Sprintf("unknown document type %q", docType)).
			WithDetail("document_type", string(docType))
	}
	return cfg, nil
}

// PrefixFor returns the "<ORG>/<FY>/" prefix docType numbers get at asOf.
func (s *Service) PrefixFor(docType corenumerator.DocumentType, asOf time.Time) (string, error) {
	cfg, err := s.Config(docType)
	if err != nil {
		return "", err
	}
	return corenumerator.Prefix(cfg.Org, s.FiscalYear(asOf)), nil
}

// FiscalYear returns the fiscal-year label of asOf in the business time zone.
// A zero asOf means now.
func (s *Service) FiscalYear(asOf time.Time) string {
	if asOf.IsZero() {
		asOf = s.now()
	}
	return corenumerator.FiscalYearLabel(asOf.In(s.loc))
}

// FindMaxSequence returns the highest sequence already used under prefix,
// or 0 when there is none. Unparsable stored numbers are skipped.
func (s *Service) FindMaxSequence(ctx context.Context, docType corenumerator.DocumentType, prefix string) (int64, error) {
	cfg, err := s.Config(docType)
	if err != nil {
		return 0, err
	}

	switch cfg.Finder {
	case corenumerator.FinderLatest:
		return s.latestSequence(ctx, docType, prefix)
	default:
		return s.scanSequence(ctx, docType, prefix)
	}
}

func (s *Service) scanSequence(ctx context.Context, docType corenumerator.DocumentType, prefix string) (int64, error) {
	numbers, err := s.store.FindByPrefix(ctx, docType, prefix)
	if err != nil {
		return 0, fmt.Errorf("find %s numbers by prefix %q: %w", docType, prefix, err)
	}

	var maxSeq int64
	for _, n := range numbers {
		seq, ok := corenumerator.ParseSequence(n, prefix)
		if !ok {
			s.metrics.malformedNumber(docType)
			logger.Warn(ctx, "skipping malformed document number",
				"document_type", docType, "number", n, "prefix", prefix)
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, nil
}

func (s *Service) latestSequence(ctx context.Context, docType corenumerator.DocumentType, prefix string) (int64, error) {
	latest, ok, err := s.store.FindLatest(ctx, docType)
	if err != nil {
		return 0, fmt.Errorf("find latest %s number: %w", docType, err)
	}
	if !ok || !strings.HasPrefix(latest, prefix) {
		return 0, nil
	}
	seq, ok := corenumerator.ParseSequence(latest, prefix)
	if !ok {
		s.metrics.malformedNumber(docType)
		logger.Warn(ctx, "latest document number is malformed",
			"document_type", docType, "number", latest, "prefix", prefix)
		return 0, nil
	}
	return seq, nil
}

// Allocate returns a number that was free at verification time.
// Another writer may still take it before the caller stores it; prefer
// AllocateAndStore when the caller can hand over the write.
func (s *Service) Allocate(ctx context.Context, req corenumerator.Request) (string, error) {
	return s.run(ctx, req, func(ctx context.Context, number string) (bool, error) {
		if req.CurrentNumber != "" && number == req.CurrentNumber {
			return true, nil
		}
		taken, err := s.store.Exists(ctx, req.DocumentType, number)
		if err != nil {
			return false, fmt.Errorf("check %s number %q: %w", req.DocumentType, number, err)
		}
		return !taken, nil
	})
}

// AllocateAndStore hands each candidate to persist. A persist error matching
// ErrDuplicateNumber moves on to the next candidate; any other error aborts
// and is returned as is.
func (s *Service) AllocateAndStore(ctx context.Context, req corenumerator.Request, persist corenumerator.PersistFunc) (string, error) {
	return s.run(ctx, req, func(ctx context.Context, number string) (bool, error) {
		err := persist(ctx, number)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, corenumerator.ErrDuplicateNumber):
			return false, nil
		default:
			return false, err
		}
	})
}

// verifyFunc reports whether number was accepted.
type verifyFunc func(ctx context.Context, number string) (bool, error)

// allocation is the state of one run through the allocation state machine.
type allocation struct {
	docType   corenumerator.DocumentType
	cfg       corenumerator.Config
	state     corenumerator.State
	asOf      time.Time
	prefix    string
	seq       int64
	candidate string
	attempts  int
	rejected  string
}

func (s *Service) run(ctx context.Context, req corenumerator.Request, verify verifyFunc) (string, error) {
	cfg, err := s.Config(req.DocumentType)
	if err != nil {
		return "", err
	}

	ctx, span := tracer.Start(ctx, "numerator.allocate",
		trace.WithAttributes(attribute.String("document.type", string(req.DocumentType))))
	defer span.End()

	number, err := s.allocate(ctx, req, cfg, verify)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("document.number", number))
	return number, nil
}

func (s *Service) allocate(ctx context.Context, req corenumerator.Request, cfg corenumerator.Config, verify verifyFunc) (string, error) {
	a := &allocation{
		docType: req.DocumentType,
		cfg:     cfg,
		state:   corenumerator.StateStart,
		asOf:    req.AsOf,
	}

	if explicit := strings.TrimSpace(req.Explicit); explicit != "" {
		ok, err := verify(ctx, explicit)
		if err != nil {
			s.metrics.allocated(a.docType, OutcomeError, 0)
			return "", err
		}
		if ok {
			s.metrics.allocated(a.docType, OutcomeExplicit, 1)
			return explicit, nil
		}
		// Taken by another document: never hand it out, generate instead.
		a.rejected = explicit
		logger.Info(ctx, "explicit document number taken, generating a new one",
			"document_type", a.docType, "number", explicit)
	}

	for {
		switch a.state {
		case corenumerator.StateStart:
			a.prefix = corenumerator.Prefix(cfg.Org, s.FiscalYear(a.asOf))
			a.state = corenumerator.StatePrefixComputed

		case corenumerator.StatePrefixComputed:
			maxSeq, err := s.FindMaxSequence(ctx, a.docType, a.prefix)
			if err != nil {
				s.metrics.allocated(a.docType, OutcomeError, 0)
				return "", err
			}
			base := max(maxSeq, cfg.Floor)
			if base == math.MaxInt64 {
				a.state = corenumerator.StateRetryExhausted
				continue
			}
			a.seq = base + 1
			a.state = corenumerator.StateCandidateProposed

		case corenumerator.StateCandidateProposed:
			if a.attempts >= s.maxAttempts {
				a.state = corenumerator.StateRetryExhausted
				continue
			}
			a.attempts++
			a.candidate = cfg.Style.Format(a.prefix, a.seq)

			accepted := false
			if a.candidate != a.rejected {
				var err error
				accepted, err = verify(ctx, a.candidate)
				if err != nil {
					s.metrics.allocated(a.docType, OutcomeError, 0)
					return "", err
				}
			}
			if accepted {
				a.state = corenumerator.StateVerified
				continue
			}

			s.metrics.collision(a.docType)
			logger.Debug(ctx, "document number collision",
				"document_type", a.docType, "candidate", a.candidate, "attempt", a.attempts)
			if a.seq == math.MaxInt64 {
				a.state = corenumerator.StateRetryExhausted
				continue
			}
			a.seq++

		case corenumerator.StateVerified:
			s.metrics.allocated(a.docType, OutcomeGenerated, a.attempts)
			trace.SpanFromContext(ctx).SetAttributes(attribute.Int("numerator.attempts", a.attempts))
			return a.candidate, nil

		case corenumerator.StateRetryExhausted:
			s.metrics.allocated(a.docType, OutcomeExhausted, 0)
			logger.Error(ctx, "document number allocation exhausted",
				"document_type", a.docType, "prefix", a.prefix, "attempts", a.attempts, "last_candidate", a.candidate)
			return "", apperror.NewSequenceExhausted(string(a.docType), a.prefix, a.attempts).
				WithCause(corenumerator.ErrSequenceExhausted)

		default:
			return "", fmt.Errorf("numerator: unexpected state %s", a.state)
		}
	}
}
