package installer

import "strings"

// p10DeprecationWarnings implements P10: emit a single grouped
// warning listing every deprecated package and its message.
func (in *Installer) p10DeprecationWarnings() {
	if len(in.deprecated) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString("the following packages are deprecated:\n")
	for _, d := range in.deprecated {
		b.WriteString(" " + d.NV + ": " + d.Message + "\n")
	}
	in.opts.Logger.Warn(strings.TrimRight(b.String(), "\n"))
}
