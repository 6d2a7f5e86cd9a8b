package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrUnavailableBackend is matched by every UnavailableError.
var ErrUnavailableBackend = errors.New("backend unavailable")

// An UnavailableError reports a lifecycle call on a backend that could not be
// loaded.
type UnavailableError struct {
	Backend string
	Variant string
	Reason  string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("variant %q needs backend %q, which is unavailable: %s",
		e.Variant, e.Backend, e.Reason)
}

// Unwrap makes UnavailableError match ErrUnavailableBackend.
func (e *UnavailableError) Unwrap() error {
	return ErrUnavailableBackend
}

// A Token is the outcome of probing a backend. Tokens of unavailable
// backends are still valid; they fail when used.
type Token struct {
	Name      string
	Available bool
	Reason    string

	routine Routine
}

// A Registry probes each backend once and remembers the outcome.
type Registry struct {
	lock     sync.Mutex
	resolver Resolver
	tokens   map[string]*Token
	logger   logrus.FieldLogger
}

// NewRegistry creates a registry that finds routines with a resolver.
func NewRegistry(resolver Resolver) *Registry {
	return &Registry{
		resolver: resolver,
		tokens:   make(map[string]*Token),
		logger:   logrus.StandardLogger(),
	}
}

// WithLogger sets the logger that reports probe outcomes.
func (r *Registry) WithLogger(logger logrus.FieldLogger) *Registry {
	r.logger = logger
	return r
}

// Probe returns the token of a backend, resolving it on first use. It never
// fails.
func (r *Registry) Probe(name string) *Token {
	r.lock.Lock()
	defer r.lock.Unlock()

	if t, ok := r.tokens[name]; ok {
		return t
	}

	t := &Token{Name: name}

	routine, err := r.resolver.Resolve(name)
	if err != nil {
		t.Reason = err.Error()
		r.logger.WithField("backend", name).
			WithError(err).
			Info("backend unavailable")
	} else {
		t.Available = true
		t.routine = routine
		r.logger.WithField("backend", name).Debug("backend available")
	}

	r.tokens[name] = t

	return t
}

// Tokens returns every probed token sorted by name.
func (r *Registry) Tokens() []*Token {
	r.lock.Lock()
	defer r.lock.Unlock()

	tokens := make([]*Token, 0, len(r.tokens))
	for _, t := range r.tokens {
		tokens = append(tokens, t)
	}

	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Name < tokens[j].Name
	})

	return tokens
}
