package installer

import "github.com/scriptrt/runtime-core/internal/lifecycle"

// p11LifecycleScripts implements P11: invoke the lifecycle-script
// executor with the full (package, path, scripts) list collected in P1.
func (in *Installer) p11LifecycleScripts() error {
	if len(in.scripts) == 0 {
		return nil
	}
	runner := lifecycle.New(lifecycle.RunOptions{
		InitialCwd: in.opts.InitialCwd,
		RuntimeUserAgent: in.opts.RuntimeUserAgent,
		AllowList: in.opts.AllowScripts,
		Interactive: in.opts.Interactive,
		Logger: in.opts.Logger,
	})
	return runner.Run(in.scripts)
}
