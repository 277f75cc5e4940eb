// Package graph builds and validates the module dependency graph.
//
// Open Question resolution: when skip_dynamic_deps is enabled and a dynamic
// import edge would transitively reach a module that is otherwise referenced
// only through type-only imports, that module is *not* enqueued at all.
// skip_dynamic_deps skips the whole edge, not just its execution-kind half —
// a type-only reference reachable solely through a skipped dynamic edge is
// unreachable for the purposes of this build, consistent with the
// optimisation's purpose (avoid walking code paths that may not execute).
package graph
