// Package scene provides the scene and camera collaborators of the
// post-process layer.
//
// A Scene owns cameras, the image processing configuration, per-camera
// depth renderers and, lazily, the pipeline manager. Render runs one frame:
// it updates the pipeline manager, renders depth maps, notifies
// after-render-targets hooks and executes every active camera's pass chain.
//
// The scene content itself is an image supplied with SetContent; mesh
// rendering is not part of this package.
package scene
