package payment

import (
	"fmt"
	"net/http"
	"sort"

	"tuition-billing/internal/apperrors"
	"tuition-billing/internal/domain/billing"
)

// Registry picks the Handler for a platform. It is built once at startup and read-only after.
type Registry struct {
	handlers map[billing.Platform]*Handler
}

func NewRegistry(handlers ...*Handler) *Registry {
	r := &Registry{handlers: make(map[billing.Platform]*Handler, len(handlers))}
	for _, h := range handlers {
		if h != nil {
			r.handlers[h.Platform()] = h
		}
	}
	return r
}

func (r *Registry) Handler(platform billing.Platform) (*Handler, error) {
	h, ok := r.handlers[platform]
	if !ok {
		return nil, apperrors.New(apperrors.CodeUnsupportedPlatform, "payment", MsgUnsupportedPlatform, http.StatusBadRequest).
			WithDetails(fmt.Sprintf("platform %q is not configured", platform))
	}
	return h, nil
}

// Platforms lists the configured platforms in name order.
func (r *Registry) Platforms() []billing.Platform {
	out := make([]billing.Platform, 0, len(r.handlers))
	for p := range r.handlers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
