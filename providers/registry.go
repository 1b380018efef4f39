package providers

import (
	"clinicpro-backend/models"
)

// Registry maps each channel to its provider. It is built once at startup
// and read-only afterwards.
type Registry struct {
	providers map[models.Channel]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[models.Channel]Provider, len(ps))}
	for _, p := range ps {
		if p != nil {
			r.providers[p.Channel()] = p
		}
	}
	return r
}

func (r *Registry) Get(ch models.Channel) (Provider, bool) {
	p, ok := r.providers[ch]
	return p, ok
}

// ConfiguredChannels lists the channels whose provider reports itself usable,
// in fallback order.
func (r *Registry) ConfiguredChannels() []models.Channel {
	out := []models.Channel{}
	for _, ch := range models.Channels {
		if p, ok := r.providers[ch]; ok && p.IsConfigured() {
			out = append(out, ch)
		}
	}
	return out
}
