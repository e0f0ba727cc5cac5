// Package intake turns client messages into staged simulation commands.
package intake

import (
	"fmt"
	"time"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/net/proto"
	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/sim"
)

// CommandRejectInvalid marks a message that does not describe a valid command.
const CommandRejectInvalid = "invalid_command"

// Queue is the slice of the simulation loop commands are staged on.
type Queue interface {
	Enqueue(sim.Command) (bool, string)
	Latest() sim.Snapshot
}

type CommandContext struct {
	Queue Queue
	Now   func() time.Time
}

// Rejection explains why a message was not staged.
type Rejection struct {
	Reason string
	Err    error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Reason, r.Err)
	}
	return r.Reason
}

func (r *Rejection) Unwrap() error { return r.Err }

// Retry reports whether resubmitting next tick may succeed.
func (r *Rejection) Retry() bool {
	return r.Reason == sim.CommandRejectQueueLimit
}

// Invalid reports whether the message itself was malformed.
func (r *Rejection) Invalid() bool {
	return r.Reason == CommandRejectInvalid
}

// StageClientCommand validates msg, stamps origin metadata for actorID and
// enqueues the command for the next tick.
func StageClientCommand(ctx CommandContext, actorID string, msg proto.ClientMessage) (sim.Command, error) {
	command, err := proto.ClientCommand(msg)
	if err != nil {
		return sim.Command{}, &Rejection{Reason: CommandRejectInvalid, Err: err}
	}
	if ctx.Queue == nil {
		return sim.Command{}, &Rejection{Reason: sim.CommandRejectQueueFull}
	}

	command.ActorID = actorID
	command.OriginTick = ctx.Queue.Latest().Tick
	if ctx.Now != nil {
		command.IssuedAt = ctx.Now()
	} else {
		command.IssuedAt = time.Now()
	}

	if ok, reason := ctx.Queue.Enqueue(command); !ok {
		return sim.Command{}, &Rejection{Reason: reason}
	}
	return command, nil
}
