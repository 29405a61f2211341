// Package pipeline composes post-process passes into named render effects
// and pipelines attached to cameras.
//
// A RenderEffect wraps the passes of one effect and splices them into the
// pass lists of the cameras it is attached to. A RenderPipeline is a named,
// ordered collection of render effects. A Manager is the per-scene registry
// of pipelines that routes camera and effect requests by name and sweeps
// unsupported pipelines every frame.
//
// Unknown pipeline or effect names are ignored everywhere.
package pipeline
