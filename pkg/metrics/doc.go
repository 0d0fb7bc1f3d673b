// Package metrics exposes seedql's Prometheus metrics.
//
// A Metrics value owns its own prometheus.Registry so several servers (and
// tests) can run in one process. It implements seed.Observer and
// instance.Observer and is handed to those packages at wiring time.
//
// # Metrics
//
//   - seedql_requests_total: GraphQL and seed API requests (labels: route, status)
//   - seedql_request_duration_seconds: request latency (labels: route)
//   - seedql_seed_matches_total: requests answered by a seed (labels: kind)
//   - seedql_seed_misses_total: requests answered by the baseline
//   - seedql_seed_registrations_total: seeds registered (labels: kind)
//   - seedql_seeds_exhausted_total: seeds removed after their last use
//   - seedql_merge_warnings_total: merge warnings returned to clients
//   - seedql_merge_errors_total: failed merges
//   - seedql_instances: mock instances built
//   - seedql_instance_build_seconds: instance construction latency
//
// Operation names and groups are user-controlled and are not used as
// labels.
//
// # Usage
//
//	m := metrics.New()
//	mgr := instance.NewManager(src, instance.Options{SeedObserver: m, Observer: m})
//	http.Handle("/metrics", m.Handler())
package metrics
