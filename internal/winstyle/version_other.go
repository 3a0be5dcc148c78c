//go:build !windows

package winstyle

// SupportsCaptureExclusion always reports false off Windows; the emulated
// Native accepts affinity calls but no capture pipeline honors them.
func SupportsCaptureExclusion() bool {
	return false
}
