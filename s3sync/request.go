package s3sync

import (
	"github.com/networksecurity/cloudsync/executor"
)

// Region is the storage region passed to every sync. It is deliberately not an option.
const Region = "ap-southeast-1"

// DefaultProgram is the external tool invoked when WithProgram is not used.
const DefaultProgram = "aws"

// Direction is the way data flows during a sync.
type Direction int

const (
	// Push copies the local directory to the remote location.
	Push Direction = iota
	// Pull copies the remote location to the local directory.
	Pull
)

// String returns "push" or "pull".
func (d Direction) String() string {
	switch d {
	case Push:
		return "push"
	case Pull:
		return "pull"
	default:
		return "unknown"
	}
}

// Request describes a single sync call. It lives only for the duration of that call.
type Request struct {
	Direction      Direction
	LocalPath      string
	RemoteLocation string
}

// Source returns the path the tool reads from.
func (r Request) Source() string {
	if r.Direction == Pull {
		return r.RemoteLocation
	}
	return r.LocalPath
}

// Destination returns the path the tool writes to.
func (r Request) Destination() string {
	if r.Direction == Pull {
		return r.LocalPath
	}
	return r.RemoteLocation
}

// BuildCommand returns the command the client runs for the given request:
//
//	<program> s3 sync <source> <destination> --region <Region> [flags...]
//
// Filter and behavior flags always follow the region so source, destination and
// region keep their positions.
func (c *Client) BuildCommand(req Request) executor.Command {
	flags := c.cfg.flags()
	args := make([]string, 0, 6+len(flags))
	args = append(args, "s3", "sync", req.Source(), req.Destination(), "--region", Region)
	args = append(args, flags...)

	return executor.Command{Program: c.cfg.program, Args: args}
}
