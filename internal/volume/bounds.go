//go:build !volnet_nobounds

package volume

// boundsCheck enables coordinate validation in Index.
// Build with -tags volnet_nobounds to skip it.
const boundsCheck = true
