package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/ports"
)

// Mask replaces sensitive values in stored snapshots.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks the values of controls
// whose path matches one of the patterns. Validation reasons of those
// controls are masked too, since they may quote the value.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Clone so the caller's snapshot stays intact.
	masked := snap.Clone()
	for path := range masked.Values {
		if m.sensitive(path) {
			masked.Values[path] = Mask
		}
	}
	for path, verr := range masked.Errors {
		if m.sensitive(path) {
			verr.Reason = Mask
			masked.Errors[path] = verr
		}
	}
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) sensitive(path string) bool {
	for _, p := range m.patterns {
		if p.MatchString(path) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
