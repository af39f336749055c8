//go:build volnet_nobounds

package volume

const boundsCheck = false
