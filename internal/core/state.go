package core

// RenderState tracks where a render is in the render/build/cache flow.
type RenderState int

const (
	StateInit RenderState = iota
	StateHTMLRendered
	StateCacheHit
	StateBuildStaged
	StateBuildPolling
	StateBuildComplete
	StateBuildHung
)

var stateNames = [...]string{
	StateInit:          "init",
	StateHTMLRendered:  "html_rendered",
	StateCacheHit:      "cache_hit",
	StateBuildStaged:   "build_staged",
	StateBuildPolling:  "build_polling",
	StateBuildComplete: "build_complete",
	StateBuildHung:     "build_hung",
}

func (s RenderState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition follows s.
func (s RenderState) Terminal() bool {
	return s == StateCacheHit || s == StateBuildComplete || s == StateBuildHung
}
