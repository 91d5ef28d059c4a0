/*
Package observability turns generator lifecycle events into Prometheus metrics.

Metrics.Hooks returns domain.LifecycleHooks to pass to crudgen.WithLifecycleHooks;
Metrics.Handler serves the registry for scraping.
*/
package observability
