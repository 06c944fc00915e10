package oppressor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/samber/lo"

	"github.com/looplj/oppressor/internal/contexts"
	"github.com/looplj/oppressor/internal/log"
	"github.com/looplj/oppressor/internal/metrics"
)

// Suppressed is returned by an intercepted method while its class is suppressed.
const Suppressed = true

type Config struct {
	// Seed makes method selection reproducible. Zero means a random seed.
	Seed uint64 `conf:"seed" yaml:"seed" json:"seed"`
}

// Suppressor picks the method to intercept and keeps the registry consistent around the oppressed block.
type Suppressor struct {
	intn    func(n int) int
	metrics *metrics.Metrics
}

type Option func(*Suppressor)

// WithIntn sets the source of randomness: intn(n) must return a value in [0, n).
func WithIntn(intn func(n int) int) Option {
	return func(s *Suppressor) {
		s.intn = intn
	}
}

// WithSeed uses a seeded PCG generator for method selection.
func WithSeed(seed uint64) Option {
	return func(s *Suppressor) {
		var (
			mu sync.Mutex
			r  = rand.New(rand.NewPCG(seed, seed))
		)

		s.intn = func(n int) int {
			mu.Lock()
			defer mu.Unlock()

			return r.IntN(n)
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Suppressor) {
		s.metrics = m
	}
}

func NewSuppressor(opts ...Option) *Suppressor {
	s := &Suppressor{intn: rand.IntN}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewSuppressorFromConfig builds a suppressor seeded from cfg.
func NewSuppressorFromConfig(cfg Config, m *metrics.Metrics) *Suppressor {
	opts := []Option{WithMetrics(m)}
	if cfg.Seed != 0 {
		opts = append(opts, WithSeed(cfg.Seed))
	}

	return NewSuppressor(opts...)
}

// Oppress suppresses one randomly chosen method of c while block runs.
// The block receives a context carrying the suppression registry; the class marker
// is restored to its previous value when block returns, fails or panics.
// The installed override stays on the class afterwards and is inert outside a suppression.
func (s *Suppressor) Oppress(ctx context.Context, c Suppressible, block func(ctx context.Context) error) (err error) {
	classID := c.Name()

	ctx = contexts.WithRegistry(ctx)
	previous := contexts.SnapshotSuppression(ctx, classID)

	candidates := c.Methods()
	if len(candidates) == 0 {
		return fmt.Errorf("oppress %s: %w", classID, ErrEmptyCandidateSet)
	}

	method := lo.SampleBy(candidates, s.intn)

	if err := c.Override(method, s.guard(classID, method)); err != nil {
		return err
	}

	contexts.WithSuppression(ctx, classID, method)
	s.metrics.IncrementOppress(classID)

	log.Debug(ctx, "oppressing class",
		log.String("class", classID),
		log.String("method", method),
		log.Int("candidates", len(candidates)),
	)

	defer func() {
		recovered := recover()

		contexts.RestoreSuppression(ctx, classID, previous)
		s.metrics.DecrementActive()

		if err != nil || recovered != nil {
			s.metrics.IncrementOppressFailures(classID)
			log.Debug(ctx, "oppressed block failed",
				log.String("class", classID),
				log.Cause(err),
				log.Any("panic", recovered),
			)
		}

		if recovered != nil {
			panic(recovered)
		}
	}()

	return block(context.WithValue(ctx, ownerKey{classID: classID}, s))
}

// ownerKey holds the suppressor of the innermost scope oppressing a class.
type ownerKey struct {
	classID string
}

// owner returns the suppressor that entered the innermost scope for classID, falling back to s.
func (s *Suppressor) owner(ctx context.Context, classID string) *Suppressor {
	if owner, ok := ctx.Value(ownerKey{classID: classID}).(*Suppressor); ok {
		return owner
	}

	return s
}

// guard short-circuits method while the registry marks the class as suppressed through it.
// The override is installed once per method, so metrics go to the suppressor owning the current scope.
func (s *Suppressor) guard(classID, method string) func(super Method) Method {
	return func(super Method) Method {
		return func(ctx context.Context, recv *Instance, args ...any) (any, error) {
			if current, ok := contexts.GetSuppression(ctx, classID); ok && current == method {
				s.owner(ctx, classID).metrics.IncrementSuppressedCalls(classID, method)
				return Suppressed, nil
			}

			return super(ctx, recv, args...)
		}
	}
}

// IsSuppressed reports whether c is suppressed in ctx and through which method.
func IsSuppressed(ctx context.Context, c Suppressible) (string, bool) {
	return contexts.GetSuppression(ctx, c.Name())
}
