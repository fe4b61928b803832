//go:build !ebiten

package window

// Available reports whether the binary was built with the window host.
const Available = false

// Run reports that no window host was compiled in.
func Run(Config) error { return ErrHeadless }
