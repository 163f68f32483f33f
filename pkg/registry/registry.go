// Package registry tracks which security products are supported for
// which cloud providers. The pipeline consults it before ingesting a
// file so an unsupported provider/product pair fails up front rather
// than producing findings nothing downstream understands.
package registry

import (
	"sort"

	"github.com/postureio/sdk/pkg/errors"
	"github.com/postureio/sdk/pkg/ocsf"
)

// supportMatrix maps each provider to the products whose output the
// normalizer understands for it.
var supportMatrix = map[ocsf.Provider]map[string]bool{
	ocsf.ProviderAWS:   {"prowler": true},
	ocsf.ProviderGCP:   {"prowler": true},
	ocsf.ProviderAzure: {"prowler": true},
}

// SupportedProducts returns the sorted distinct products supported by
// at least one provider.
func SupportedProducts() []string {
	seen := make(map[string]bool)
	for _, products := range supportMatrix {
		for product := range products {
			seen[product] = true
		}
	}

	names := make([]string, 0, len(seen))
	for product := range seen {
		names = append(names, product)
	}
	sort.Strings(names)
	return names
}

// Providers returns the sorted providers present in the support matrix.
func Providers() []ocsf.Provider {
	providers := make([]ocsf.Provider, 0, len(supportMatrix))
	for provider := range supportMatrix {
		providers = append(providers, provider)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}

// ProductsFor returns the sorted products supported for a provider.
// Unknown providers yield an empty slice.
func ProductsFor(provider ocsf.Provider) []string {
	supported, ok := supportMatrix[provider]
	if !ok {
		return []string{}
	}

	products := make([]string, 0, len(supported))
	for product := range supported {
		products = append(products, product)
	}
	sort.Strings(products)
	return products
}

// IsKnownProduct reports whether any provider supports the product.
func IsKnownProduct(product string) bool {
	for _, products := range supportMatrix {
		if products[product] {
			return true
		}
	}
	return false
}

// ValidateSupport checks that a product is recognized and supported for
// the given provider.
func ValidateSupport(provider ocsf.Provider, product string) error {
	const op = "registry.ValidateSupport"

	if !provider.Valid() {
		return errors.E(op, errors.KindInvalidInput, "unknown provider: "+provider.String())
	}
	if !IsKnownProduct(product) {
		return errors.E(op, errors.KindNotFound, "unknown product: "+product)
	}
	if !supportMatrix[provider][product] {
		return errors.E(op, errors.KindInvalidInput,
			"product "+product+" is not supported for provider "+provider.String())
	}
	return nil
}
