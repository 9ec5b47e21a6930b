package download

// perWorkerConnections is the default per-worker connection allotment
// reflecting typical multi-part range concurrency (spec.md §4.7).
const perWorkerConnections = 10

// defaultTransportBaseline is the pool size floor applied regardless of
// worker count, standing in for "the transport's documented default"
// spec.md §4.7 leaves to the implementer — net/http's own default
// (MaxIdleConnsPerHost=2) is far too small for this workload, so the
// floor is set at one worker's allotment instead.
const defaultTransportBaseline = perWorkerConnections

// TransportPoolSize computes the HTTP connection-pool capacity a Fetcher
// pool of the given size needs so that workers never serialize on pool
// acquisition (spec.md §4.7). The result is wired into the provider via
// Config.PoolSize before any work is dispatched.
func TransportPoolSize(workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := workers * perWorkerConnections
	if size < defaultTransportBaseline {
		return defaultTransportBaseline
	}
	return size
}
