package intcode

import (
	"context"

	"github.com/colorfulnotion/intcode/log"
	"golang.org/x/exp/slices"
)

// cancelCheckInterval is how many instructions run between context checks.
const cancelCheckInterval = 1024

// VM is a loaded program with both I/O capabilities attached.
// Run may be called once.
type VM struct {
	name  string
	mem   *Memory
	cpu   CPU
	in    Input
	out   Output
	world IO
}

// New builds a runnable VM from an image and a driver offering both capabilities.
func New(image []int64, world IO) *VM {
	return Load(image).Driver(world)
}

// Loader is a memory image waiting for its drivers.
type Loader struct {
	name  string
	image []int64
}

// Load starts building a VM from image. The image is copied.
func Load(image []int64) *Loader {
	return &Loader{image: slices.Clone(image)}
}

// Named tags the VM in log lines.
func (l *Loader) Named(name string) *Loader {
	l.name = name
	return l
}

// Driver attaches one value providing both capabilities.
func (l *Loader) Driver(world IO) *VM {
	return &VM{
		name:  l.name,
		mem:   NewMemory(l.image),
		in:    world,
		out:   world,
		world: world,
	}
}

// Input attaches the input side; the output side is still missing.
func (l *Loader) Input(in Input) *InputBound {
	return &InputBound{loader: l, in: in}
}

// InputValues attaches a fixed list of input values.
func (l *Loader) InputValues(values ...int64) *InputBound {
	return l.Input(NewIter(values...))
}

// NoInput is for programs that never execute INPUT.
func (l *Loader) NoInput() *InputBound {
	return l.Input(Pure{})
}

// InputBound is a loader with its input side attached.
type InputBound struct {
	loader *Loader
	in     Input
}

// Output attaches the output side and yields a runnable VM.
func (b *InputBound) Output(out Output) *VM {
	vm := b.loader.Driver(Split{In: b.in, Out: out})
	vm.in, vm.out = b.in, out
	return vm
}

// SingleOutput keeps only the last value written; read it with Result.LastOutput.
func (b *InputBound) SingleOutput() *VM {
	return b.Output(&SingleOutput{})
}

// Collect keeps every value written; read them with Result.Outputs.
func (b *InputBound) Collect() *VM {
	return b.Output(&Collect{})
}

// NoOutput discards everything written.
func (b *InputBound) NoOutput() *VM {
	return b.Output(Pure{})
}

func (vm *VM) Name() string {
	return vm.name
}

// Memory exposes the tape, e.g. to patch cells before Run.
func (vm *VM) Memory() *Memory {
	return vm.mem
}

// Result is the state left behind by a halted VM.
type Result struct {
	Memory []int64
	In     Input
	Out    Output
	Steps  uint64
}

// LastOutput returns the final value written, for SingleOutput and Collect drivers.
func (r *Result) LastOutput() (int64, bool) {
	switch out := r.Out.(type) {
	case *SingleOutput:
		return out.Get()
	case *Collect:
		if len(out.Values) == 0 {
			return 0, false
		}
		return out.Values[len(out.Values)-1], true
	}
	return 0, false
}

// Outputs returns every value written, for Collect drivers.
func (r *Result) Outputs() []int64 {
	if out, ok := r.Out.(*Collect); ok {
		return out.Values
	}
	return nil
}

// Run executes until HALT, an error, or ctx is cancelled.
func (vm *VM) Run(ctx context.Context) (*Result, error) {
	vm.cpu.trace = log.ModuleEnabled(log.VMMonitoring)
	for {
		if vm.cpu.steps%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return vm.result(), err
			}
		}
		res, err := vm.cpu.ExecNext(vm.mem, vm.world)
		if err != nil {
			log.Debug(log.VMMonitoring, "vm aborted", "vm", vm.name, "steps", vm.cpu.steps, "err", err)
			return vm.result(), err
		}
		if res == ExecHalt {
			break
		}
	}
	log.Debug(log.VMMonitoring, "vm halted", "vm", vm.name, "steps", vm.cpu.steps, "memory", vm.mem.Len())
	return vm.result(), nil
}

func (vm *VM) result() *Result {
	return &Result{
		Memory: vm.mem.Snapshot(),
		In:     vm.in,
		Out:    vm.out,
		Steps:  vm.cpu.steps,
	}
}
