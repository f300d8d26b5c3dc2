package build

import (
	"context"

	"github.com/svclabs/swaggersvc/internal/descr"
	"github.com/svclabs/swaggersvc/internal/model"
)

// Compile fetches the resource listing at input, walks its declarations in
// order through the given loader, and builds the service model. Fetching is
// the only I/O-bound step; the loader's politeness delay throttles it.
func Compile(ctx context.Context, loader *descr.Loader, input string, opts ...Option) (*model.ServiceModel, error) {
	b := NewServiceBuilder(opts...)

	listing, err := loader.Listing(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := b.AddListing(input, listing); err != nil {
		return nil, err
	}

	for _, ref := range listing.APIs {
		location := loader.Resolve(ref.Path, input)
		decl, err := loader.Declaration(ctx, location)
		if err != nil {
			return nil, err
		}
		if err := b.AddDeclaration(location, decl); err != nil {
			return nil, err
		}
	}

	return b.Build()
}
