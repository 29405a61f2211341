// Package effects provides composite render effects made of several
// post-process passes.
package effects
