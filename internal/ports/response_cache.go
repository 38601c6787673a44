package ports

import "github.com/bnema/guac-console/internal/domain"

type ResponseCache interface {
	Get(namespace domain.CacheNamespace, key string) (domain.Response, bool)
	// Generation changes whenever namespace is invalidated.
	Generation(namespace domain.CacheNamespace) uint64
	// PutIfGeneration stores value only while namespace is still at generation, so a
	// response fetched before an invalidation is never stored after it.
	PutIfGeneration(namespace domain.CacheNamespace, key string, generation uint64, value domain.Response) bool
	Invalidate(namespace domain.CacheNamespace, key string)
	InvalidateAll(namespace domain.CacheNamespace)
}
