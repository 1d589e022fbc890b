// Package entities provides the core domain entities of the hook toolkit:
// target descriptors, patch kinds and reference sets, hook methods handed to the
// interception framework, and the patch manifest.
package entities
