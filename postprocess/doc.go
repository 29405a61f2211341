// Package postprocess provides full-screen post-process passes and the
// per-camera chain that executes them.
//
// A Pass owns an input texture that the previous stage of the chain renders
// into: the scene for the first pass, the previous pass otherwise. The last
// pass of a chain renders to the default framebuffer. A pass may share the
// input texture of another pass instead of allocating its own.
//
// Passes are plain values parameterized by program name, defines and a few
// capability flags. Specialized passes (blur, bloom merge, circle of
// confusion) are thin wrappers that register OnApply hooks to bind their
// uniforms.
package postprocess
