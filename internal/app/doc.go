// Package app runs the unet command: it builds the configured U-Net on the
// CPU backend and either prints its layer summary or runs one forward pass.
package app
