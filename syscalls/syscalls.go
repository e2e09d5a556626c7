// Package syscalls is the kernel's system call surface: a number plus six
// integer arguments in, a signed 64-bit result out, with negative values
// reporting failure. Numbers and the register convention mirror Linux for
// the implemented subset.
package syscalls

import (
	"github.com/lithos-os/lithos"
	"github.com/lithos-os/lithos/console"
	"github.com/lithos-os/lithos/internal/logger"
	"github.com/lithos-os/lithos/vfs"
)

// Linux-compatible syscall numbers.
const (
	SysRead  = 0
	SysWrite = 1
	SysOpen  = 2
	SysClose = 3
	SysFork  = 57
	SysExec  = 59
	SysExit  = 60
	SysWait  = 61
)

// Every kernel error collapses to this at the syscall boundary.
const errResult = -1

// Dispatcher routes syscalls to their handlers, translating user buffers
// through the given Memory.
type Dispatcher struct {
	mem Memory
}

func NewDispatcher(mem Memory) *Dispatcher {
	return &Dispatcher{mem: mem}
}

// Dispatch handles one syscall. Arguments follow the x86_64 System V
// convention: the number arrives in rax, arguments in rdi, rsi, rdx, r10,
// r8, r9, and the result returns in rax.
func (d *Dispatcher) Dispatch(num, arg1, arg2, arg3, arg4, arg5, arg6 uint64) int64 {
	switch num {
	case SysRead:
		return d.sysRead(int64(arg1), arg2, arg3)
	case SysWrite:
		return d.sysWrite(int64(arg1), arg2, arg3)
	case SysOpen:
		return d.sysOpen(arg1, int64(arg2))
	case SysClose:
		return d.sysClose(int64(arg1))
	case SysFork:
		return d.sysFork()
	case SysExec:
		return d.sysExec(arg1)
	case SysExit:
		return d.sysExit(int64(int32(arg1)))
	case SysWait:
		return d.sysWait(arg1)
	default:
		logger.Default().Warnf("unknown syscall: %d", num)
		return errResult
	}
}

func (d *Dispatcher) sysRead(fd int64, bufPtr, count uint64) int64 {
	if bufPtr == 0 || count == 0 {
		return errResult
	}

	buf, err := d.mem.Slice(bufPtr, count)
	if err != nil {
		return errResult
	}

	n, err := vfs.Read(vfs.FileDescriptor(fd), buf)
	if err != nil {
		return errResult
	}
	return int64(n)
}

func (d *Dispatcher) sysWrite(fd int64, bufPtr, count uint64) int64 {
	if bufPtr == 0 || count == 0 {
		return errResult
	}

	buf, err := d.mem.Slice(bufPtr, count)
	if err != nil {
		return errResult
	}

	// stdout and stderr short-circuit to the console, one character per
	// byte. This path cannot fail.
	if fd == 1 || fd == 2 {
		for _, b := range buf {
			console.WriteByte(b)
		}
		return int64(count)
	}

	n, err := vfs.Write(vfs.FileDescriptor(fd), buf)
	if err != nil {
		return errResult
	}
	return int64(n)
}

// Open flag bits, Linux-style.
const (
	openAccessMask = 0x3
	openWriteOnly  = 0x1
	openReadWrite  = 0x2
	openCreate     = 0x40
	openAppend     = 0x400
)

func openFlagsFromBits(bits int64) lithos.OpenFlags {
	var flags lithos.OpenFlags
	switch bits & openAccessMask {
	case openWriteOnly:
		flags = lithos.WriteOnly()
	case openReadWrite:
		flags = lithos.ReadWrite()
	default:
		flags = lithos.ReadOnly()
	}
	flags.Create = bits&openCreate != 0
	flags.Append = bits&openAppend != 0
	return flags
}

func (d *Dispatcher) sysOpen(pathPtr uint64, flagBits int64) int64 {
	if pathPtr == 0 {
		return errResult
	}

	raw, err := d.mem.CString(pathPtr)
	if err != nil {
		return errResult
	}

	fd, err := vfs.Open(decodePath(raw), openFlagsFromBits(flagBits))
	if err != nil {
		return errResult
	}
	return int64(fd)
}

func (d *Dispatcher) sysClose(fd int64) int64 {
	if err := vfs.Close(vfs.FileDescriptor(fd)); err != nil {
		return errResult
	}
	return 0
}

func (d *Dispatcher) sysExit(code int64) int64 {
	logger.Default().Infof("process exited with code: %d", code)
	// There is no process to tear down yet; the code echoes back.
	return code
}

func (d *Dispatcher) sysFork() int64 {
	logger.Default().Warn("fork() not yet implemented")
	return errResult
}

func (d *Dispatcher) sysExec(pathPtr uint64) int64 {
	logger.Default().Warn("exec() not yet implemented")
	return errResult
}

func (d *Dispatcher) sysWait(statusPtr uint64) int64 {
	logger.Default().Warn("wait() not yet implemented")
	return errResult
}
