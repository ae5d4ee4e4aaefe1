// Package builtin implements the shell's in-process commands and the
// handler that launches everything else as an external process.
package builtin

import (
	"context"

	"github.com/marcelocantos/ish/internal/cap"
)

// Execute dispatches one command. Builtins run to completion and return
// buffered output, leaving the context's handles in place for the caller
// to deliver it. External commands are started and consume the context.
func Execute(ctx context.Context, env *cap.Env, name string, args []string, ec *cap.ExecutionContext) cap.Result {
	k := cap.Classify(name)
	if k == cap.External {
		return runExternal(ctx, env, name, args, ec)
	}
	env.Logger().Debug("builtin", "name", name, "args", args)

	out := &cap.Output{}
	res := cap.Result{Output: out}
	switch k {
	case cap.Exit:
		res.Code, res.Exit = exit(env, args, out)
	case cap.Pwd:
		res.Code = pwd(env, out)
	case cap.Cd:
		res.Code = cd(env, args, out)
	case cap.Echo:
		res.Code = echo(args, out)
	case cap.Type:
		res.Code = typeCmd(env, args, out)
	case cap.History:
		res.Code = history(env, args, out)
	}
	return res
}
