package core

import (
	"fmt"
	"sort"

	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = map[string]ShellBuiltin{
	"cd": ShellBuiltinFunc(Cd),
}

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinNames returns the sorted names of all builtins.
func BuiltinNames() []string {
	var out []string
	for name := range AllBuiltins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Cd is the cd shell builtin
func Cd(s *Shell, args []string) int {
	opts := getopt.New()
	opts.SetParameters("PATH")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.VirtualOS.Stderr()
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: cd PATH")
		fmt.Fprintln(w, "Change the shell working directory.")
		if err != nil {
			return 1
		}
		return 0
	}

	if opts.NArgs() == 0 {
		s.Errorf("%s: path is not given", args[0])
		return 1
	}

	if err := s.VirtualOS.Chdir(opts.Arg(0)); err != nil {
		s.Errorf("%s: %v", args[0], err)
		return 1
	}
	return 0
}
