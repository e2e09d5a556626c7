// Package shell is the kernel's interactive command interpreter. It talks
// to the world exclusively through the VFS ops and the console.
package shell

import (
	"fmt"
	"strings"

	"github.com/lithos-os/lithos"
	"github.com/lithos-os/lithos/console"
	"github.com/lithos-os/lithos/task/keyboard"
	"github.com/lithos-os/lithos/vfs"
)

// Shell interprets one command line at a time.
type Shell struct {
	cwd  string
	line []rune
}

func New() *Shell {
	return &Shell{cwd: "/"}
}

func printf(format string, args ...any) {
	console.WriteString(fmt.Sprintf(format, args...))
}

// Prompt returns the string shown before each command line.
func (s *Shell) Prompt() string {
	return s.cwd + "$ "
}

// HandleKey feeds one decoded keystroke into the shell's line editor.
// Printable characters accumulate; Enter executes; Backspace erases.
func (s *Shell) HandleKey(key keyboard.Key) {
	switch {
	case key.Rune == '\n':
		console.WriteRune('\n')
		s.Execute(string(s.line))
		s.line = s.line[:0]
		console.WriteString(s.Prompt())
	case key.Rune != 0:
		s.line = append(s.line, key.Rune)
		console.WriteRune(key.Rune)
	case key.Name == "Backspace":
		if len(s.line) > 0 {
			s.line = s.line[:len(s.line)-1]
			console.WriteString("\b \b")
		}
	}
}

// Execute runs a single command line.
func (s *Shell) Execute(line string) {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return
	}

	arg := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	switch parts[0] {
	case "help":
		s.cmdHelp()
	case "ls":
		s.cmdLs(arg(1))
	case "pwd":
		s.cmdPwd()
	case "cd":
		s.cmdCd(arg(1))
	case "mkdir":
		s.cmdMkdir(arg(1))
	case "touch":
		s.cmdTouch(arg(1))
	case "cat":
		s.cmdCat(arg(1))
	case "stat":
		s.cmdStat(arg(1))
	case "echo":
		s.cmdEcho(parts[1:])
	case "clear":
		s.cmdClear()
	default:
		printf("Unknown command: %s. Type 'help' for available commands.\n", parts[0])
	}
}

func (s *Shell) cmdHelp() {
	printf("Available commands:\n")
	printf("  help          - Show this help message\n")
	printf("  ls [path]     - List directory contents\n")
	printf("  pwd           - Print working directory\n")
	printf("  cd <path>     - Change directory\n")
	printf("  mkdir <path>  - Create directory\n")
	printf("  touch <path>  - Create empty file\n")
	printf("  cat <path>    - Print file contents\n")
	printf("  stat <path>   - Show file metadata\n")
	printf("  echo <text>   - Print text\n")
	printf("  clear         - Clear screen\n")
}

func (s *Shell) cmdLs(path string) {
	target := path
	if target == "" {
		target = s.cwd
	}

	entries, err := vfs.ReadDir(target)
	if err != nil {
		printf("ls: %s\n", err)
		return
	}
	if len(entries) == 0 {
		printf("(empty directory)\n")
		return
	}
	for _, entry := range entries {
		printf("  %s\n", entry)
	}
}

func (s *Shell) cmdPwd() {
	printf("%s\n", s.cwd)
}

func (s *Shell) cmdCd(path string) {
	if path == "" {
		s.cwd = "/"
		return
	}
	if !strings.HasPrefix(path, "/") {
		printf("cd: only absolute paths supported (must start with /)\n")
		return
	}

	node, err := vfs.ResolvePath(path)
	if err != nil {
		printf("cd: %s\n", err)
		return
	}
	if node.FileType() != lithos.FileTypeDirectory {
		printf("cd: %s\n", lithos.ErrNotADirectory)
		return
	}
	s.cwd = path
}

func (s *Shell) cmdMkdir(path string) {
	if path == "" {
		printf("mkdir: missing path argument\n")
		return
	}
	if err := vfs.Mkdir(path); err != nil {
		printf("mkdir: %s\n", err)
	}
}

func (s *Shell) cmdTouch(path string) {
	if path == "" {
		printf("touch: missing path argument\n")
		return
	}
	if err := vfs.Create(path); err != nil {
		printf("touch: %s\n", err)
	}
}

func (s *Shell) cmdCat(path string) {
	if path == "" {
		printf("cat: missing path argument\n")
		return
	}

	fd, err := vfs.Open(path, lithos.ReadOnly())
	if err != nil {
		printf("cat: %s\n", err)
		return
	}
	defer vfs.Close(fd)

	buf := make([]byte, 512)
	for {
		n, err := vfs.Read(fd, buf)
		if err != nil {
			printf("cat: %s\n", err)
			return
		}
		if n == 0 {
			return
		}
		console.Write(buf[:n])
	}
}

func (s *Shell) cmdStat(path string) {
	if path == "" {
		printf("stat: missing path argument\n")
		return
	}

	fileType, size, perm, err := vfs.Stat(path)
	if err != nil {
		printf("stat: %s\n", err)
		return
	}
	printf("%s: %s, %d bytes, mode %04o\n", path, fileType, size, perm.Mode)
}

func (s *Shell) cmdEcho(args []string) {
	printf("%s\n", strings.Join(args, " "))
}

func (s *Shell) cmdClear() {
	// No scrollback control on the console; push the old contents away.
	for i := 0; i < 50; i++ {
		console.WriteRune('\n')
	}
}
