package main

import (
	"os"
	"vkposter/cmd/vkposter/commands"
	"vkposter/lib/osutil"
)

func main() {
	ctx, interrupt := osutil.SignalContext()
	err := commands.ExecuteContext(ctx)
	if sig := interrupt.Signal(); sig != nil {
		osutil.Reraise(sig)
	}
	os.Exit(commands.ExitCode(err))
}
