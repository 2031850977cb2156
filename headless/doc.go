// Package headless provides an EGL pbuffer graphics.Context for rendering
// without a window.
package headless
