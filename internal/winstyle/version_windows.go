//go:build windows

package winstyle

import "golang.org/x/sys/windows"

// minExclusionBuild is the first Windows 10 build (2004 / 20H1) that accepts
// WDA_EXCLUDEFROMCAPTURE.
const minExclusionBuild = 19041

// SupportsCaptureExclusion reports whether the running OS build accepts
// WDA_EXCLUDEFROMCAPTURE. RtlGetNtVersionNumbers is used instead of the
// manifest-gated GetVersionEx family so the answer does not depend on how the
// binary was built.
func SupportsCaptureExclusion() bool {
	major, _, build := windows.RtlGetNtVersionNumbers()
	if major > 10 {
		return true
	}
	return major == 10 && build >= minExclusionBuild
}
