package stable

// Registry is the fixed, ordered set of approved collateral assets and their
// price sources. It is sealed at construction; an asset absent from the
// registry can never be deposited, priced, or liquidated. Iteration always
// follows insertion order so repeated valuations within one operation are
// deterministic.
type Registry struct {
	order   []AssetID
	sources map[AssetID]PriceSource
}

// NewRegistry pairs each asset with the price source at the same index. The
// two slices must have equal length.
func NewRegistry(assets []AssetID, sources []PriceSource) (*Registry, error) {
	if len(assets) != len(sources) {
		return nil, ErrLengthMismatch
	}
	r := &Registry{sources: make(map[AssetID]PriceSource, len(assets))}
	for i, asset := range assets {
		if _, ok := r.sources[asset]; ok {
			// Last registration of a duplicate asset wins.
			r.sources[asset] = sources[i]
			continue
		}
		r.order = append(r.order, asset)
		r.sources[asset] = sources[i]
	}
	return r, nil
}

// Contains reports whether the asset is approved.
func (r *Registry) Contains(asset AssetID) bool {
	if r == nil {
		return false
	}
	_, ok := r.sources[asset]
	return ok
}

// Source returns the price source registered for the asset.
func (r *Registry) Source(asset AssetID) (PriceSource, bool) {
	if r == nil {
		return nil, false
	}
	src, ok := r.sources[asset]
	return src, ok
}

// Assets returns the approved assets in insertion order.
func (r *Registry) Assets() []AssetID {
	if r == nil {
		return nil
	}
	out := make([]AssetID, len(r.order))
	copy(out, r.order)
	return out
}
