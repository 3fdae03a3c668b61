// Package interactive provides the interactive command-line interface
// for oscquery-server.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/oscquery/oscquery-go/pkg/model"
	"github.com/oscquery/oscquery-go/pkg/server"
	"github.com/oscquery/oscquery-go/pkg/tree"
)

// Shell handles interactive mode for oscquery-server.
type Shell struct {
	srv *server.Server
	rl  *readline.Instance
}

// New creates a new interactive shell.
func New(srv *server.Server) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "oscquery> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{srv: srv, rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline
// input. Use this for log output to avoid interfering with the prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "tree", "ls":
			s.cmdTree(args)

		case "get", "g":
			s.cmdGet(args)

		case "set", "s":
			s.cmdSet(args)

		case "add":
			s.cmdAdd(args)

		case "rm", "remove":
			s.cmdRemove(args)

		case "trigger", "t":
			s.cmdTrigger(args)

		case "peer":
			s.cmdPeer(args)

		case "status":
			s.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
OSCQuery Server Commands:
  Namespace:
    tree [path]            - Show the namespace (or a subtree)
    get <path>             - Read a node's current values
    set <path> <vals...>   - Write values to a node
    add <path> [tags vals] - Add a container, or a method with OSC type
                             tags and initial values (e.g. add /a/b f 1.5)
    rm <path>              - Remove a node and its subtree
    trigger <path>         - Announce a node's value to subscribers and peers

  Transport:
    peer add|rm <addr>     - Manage UDP peers receiving outbound OSC
    status                 - Show bound addresses

  General:
    help                   - Show this help
    quit                   - Exit server`)
}

// cmdTree prints the namespace as an indented tree.
func (s *Shell) cmdTree(args []string) {
	path := "/"
	if len(args) > 0 {
		path = args[0]
	}

	var out strings.Builder
	var err error
	s.srv.Coordinator().View(func(t *tree.Tree) {
		var node *tree.Node
		node, err = t.Resolve(path)
		if err != nil {
			return
		}
		writeTree(&out, node, 0)
	})
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.rl.Stdout(), out.String())
}

func writeTree(out *strings.Builder, node *tree.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	name := node.Segment()
	if name == "" {
		name = "/"
	}
	if node.IsContainer() {
		fmt.Fprintf(out, "%s%s/\n", indent, name)
	} else {
		fmt.Fprintf(out, "%s%s  [%s] %s  %s\n",
			indent, name, node.TypeString(), formatValues(node.Values()), node.Access())
	}
	for _, child := range node.ChildNames() {
		writeTree(out, node.Child(child), depth+1)
	}
}

func (s *Shell) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: get <path>")
		return
	}
	values, err := s.srv.GetValue(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %s\n", args[0], formatValues(values))
}

func (s *Shell) cmdSet(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: set <path> <values...>")
		return
	}
	path := args[0]

	current, err := s.srv.GetValue(path)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if len(args)-1 != len(current) {
		fmt.Fprintf(s.rl.Stdout(), "Error: %s expects %d values\n", path, len(current))
		return
	}

	values := make([]model.Value, len(current))
	for i, raw := range args[1:] {
		v, err := parseValue(current[i].Kind(), raw)
		if err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
			return
		}
		values[i] = v
	}

	stored, err := s.srv.SetValue(path, values...)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %s\n", path, formatValues(stored))
}

func (s *Shell) cmdAdd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: add <path> [typetags values...]")
		return
	}
	path := args[0]

	var spec tree.Spec
	if len(args) == 1 {
		spec = tree.Container("")
	} else {
		tags := args[1]
		if len(args)-2 != len(tags) {
			fmt.Fprintf(s.rl.Stdout(), "Error: %d values for type tags %q\n", len(args)-2, tags)
			return
		}
		values := make([]model.Value, len(tags))
		for i, tag := range tags {
			kind, err := kindForTag(byte(tag))
			if err != nil {
				fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
				return
			}
			v, err := parseValue(kind, args[2+i])
			if err != nil {
				fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
				return
			}
			values[i] = v
		}
		spec = tree.Spec{Access: model.AccessReadWrite, Values: values}
	}

	if err := s.srv.AddNode(path, spec); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Added %s\n", path)
}

func (s *Shell) cmdRemove(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: rm <path>")
		return
	}
	if err := s.srv.RemoveNode(args[0]); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "Removed %s\n", args[0])
}

func (s *Shell) cmdTrigger(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: trigger <path>")
		return
	}
	if err := s.srv.Trigger(args[0]); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
	}
}

func (s *Shell) cmdPeer(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: peer add|rm <host:port>")
		return
	}
	switch args[0] {
	case "add":
		if err := s.srv.AddOSCPeer(args[1]); err != nil {
			fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.rl.Stdout(), "Peer %s added\n", args[1])
	case "rm", "remove":
		s.srv.RemoveOSCPeer(args[1])
		fmt.Fprintf(s.rl.Stdout(), "Peer %s removed\n", args[1])
	default:
		fmt.Fprintln(s.rl.Stdout(), "Usage: peer add|rm <host:port>")
	}
}

func (s *Shell) cmdStatus() {
	out := s.rl.Stdout()
	if addr := s.srv.HTTPAddr(); addr != nil {
		fmt.Fprintf(out, "HTTP/WS:  %s\n", addr)
	} else {
		fmt.Fprintln(out, "HTTP/WS:  not running")
	}
	if addr := s.srv.OSCAddr(); addr != nil {
		fmt.Fprintf(out, "OSC/UDP:  %s\n", addr)
	} else {
		fmt.Fprintln(out, "OSC/UDP:  disabled")
	}
}

// formatValues renders values for terminal display.
func formatValues(values []model.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v.JSON())
	}
	return strings.Join(parts, " ")
}

// kindForTag maps an OSC type tag to a value kind for parsing.
func kindForTag(tag byte) (model.Kind, error) {
	switch tag {
	case 'i':
		return model.KindInt32, nil
	case 'f':
		return model.KindFloat32, nil
	case 's':
		return model.KindString, nil
	case 'h':
		return model.KindInt64, nil
	case 'd':
		return model.KindDouble, nil
	case 'c':
		return model.KindChar, nil
	case 'T', 'F':
		return model.KindBool, nil
	default:
		return model.KindInvalid, fmt.Errorf("unsupported type tag %q", tag)
	}
}

// parseValue parses a command argument into a value of the given kind.
func parseValue(kind model.Kind, raw string) (model.Value, error) {
	switch kind {
	case model.KindInt32:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return model.Value{}, fmt.Errorf("not an int32: %q", raw)
		}
		return model.Int32(int32(n)), nil
	case model.KindFloat32:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return model.Value{}, fmt.Errorf("not a float: %q", raw)
		}
		return model.Float32(float32(f)), nil
	case model.KindString:
		return model.String(raw), nil
	case model.KindInt64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("not an int64: %q", raw)
		}
		return model.Int64(n), nil
	case model.KindDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("not a double: %q", raw)
		}
		return model.Double(f), nil
	case model.KindChar:
		runes := []rune(raw)
		if len(runes) != 1 {
			return model.Value{}, fmt.Errorf("not a single char: %q", raw)
		}
		return model.Char(runes[0]), nil
	case model.KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return model.Value{}, fmt.Errorf("not a bool: %q", raw)
		}
		return model.Bool(b), nil
	default:
		return model.Value{}, fmt.Errorf("cannot parse %s values here", kind)
	}
}
