package music

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
)

// ExecOutput plays tracks through an external command line player, one
// process per track. The source is appended as the last argument.
type ExecOutput struct {
	command  []string
	muteArgs []string
	onEnded  func()

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecOutput builds an output around command (for example
// ffplay -nodisp -autoexit). muteArgs are added when the player is muted.
func NewExecOutput(command, muteArgs []string) *ExecOutput {
	return &ExecOutput{command: command, muteArgs: muteArgs}
}

// OnEnded registers fn to run when a track's process exits by itself.
func (o *ExecOutput) OnEnded(fn func()) {
	o.mu.Lock()
	o.onEnded = fn
	o.mu.Unlock()
}

func (o *ExecOutput) Play(source string, muted bool) error {
	if len(o.command) == 0 {
		return errors.New("no player command configured")
	}
	args := append([]string{}, o.command[1:]...)
	if muted {
		args = append(args, o.muteArgs...)
	}
	args = append(args, source)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()

	cmd := exec.Command(o.command[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	o.cmd = cmd
	go o.wait(cmd)
	return nil
}

func (o *ExecOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
	return nil
}

func (o *ExecOutput) stopLocked() {
	if o.cmd == nil {
		return
	}
	cmd := o.cmd
	o.cmd = nil
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.Printf("warn: stopping player: %v", err)
	}
}

func (o *ExecOutput) wait(cmd *exec.Cmd) {
	err := cmd.Wait()

	o.mu.Lock()
	natural := o.cmd == cmd
	if natural {
		o.cmd = nil
	}
	onEnded := o.onEnded
	o.mu.Unlock()

	if !natural {
		return
	}
	if err != nil {
		log.Printf("warn: player exited: %v", err)
	}
	if onEnded != nil {
		onEnded()
	}
}
