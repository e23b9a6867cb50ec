package main

import "github.com/TanZiPeng/mcserver/cmd"

var (
	Version   = "alpha"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd.SetVersionInfo(Version, BuildTime, GitCommit)
	cmd.Execute()
}
