package docker

import "time"

const (
	ContainerOpTimeout = 30 * time.Second
	RestartOpTimeout   = 90 * time.Second
	ExecTimeout        = 2 * time.Minute
	StatsTimeout       = 10 * time.Second
	PingTimeout        = 5 * time.Second
)

// stop/restart grace periods handed to the engine, in seconds
const (
	StopGraceSeconds    = 10
	RestartGraceSeconds = 30
)
