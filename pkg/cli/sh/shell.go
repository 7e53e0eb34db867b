package sh

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/badge.go/pkg/badge/env"
	"github.com/robotalks/badge.go/pkg/coproc"
)

// Shell provides ishell backed interactive shell over the coprocessor.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Env   *env.Env
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&FirmwareCmd,
		&VBatCmd,
		&UIDCmd,
		&InputsCmd,
		&ReadCmd,
		&WriteCmd,
		&ScratchCmd,
		&IRCmd,
		&PressCmd,
		&ReleaseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(e *env.Env) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Env:   e,
	}
	s.Shell.Set(shellKey, s)
	prompt := "badge > "
	if e.Sim != nil {
		prompt = "badge(sim) > "
	}
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Device returns the coprocessor the shell talks to.
func (s *Shell) Device() *coproc.Device {
	return s.Env.Device
}

// Output prints v as JSON when requested, or the text otherwise.
func (s *Shell) Output(c *ishell.Context, v interface{}, text string) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text)
}

// Run processes args as one command, or starts the interactive shell.
func (s *Shell) Run(args ...string) error {
	if len(args) > 0 {
		return s.Shell.Process(args...)
	}
	if s.Interactive {
		s.Shell.Run()
		return nil
	}
	return fmt.Errorf("command expected")
}

// MustBeSim wraps command func requires the simulator.
func MustBeSim(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Env.Sim == nil {
			c.Err(fmt.Errorf("only available with -sim"))
			return
		}
		fn(c)
	}
}

// ExpectArgs wraps command func requires at least min arguments.
func ExpectArgs(min int, fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if len(c.Args) < min {
			c.Err(fmt.Errorf("usage: %s %s", c.Cmd.Name, c.Cmd.Help))
			return
		}
		fn(c)
	}
}

func parseByte(s string) (byte, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return byte(n), nil
}

func parseBytes(args []string) ([]byte, error) {
	data := make([]byte, len(args))
	for n, arg := range args {
		b, err := parseByte(arg)
		if err != nil {
			return nil, err
		}
		data[n] = b
	}
	return data, nil
}

func parseInput(s string) (coproc.Input, error) {
	in, ok := coproc.ParseInput(s)
	if !ok {
		return 0, fmt.Errorf("unknown input %q", s)
	}
	return in, nil
}

func formatBytes(data []byte) string {
	parts := make([]string, len(data))
	for n, b := range data {
		parts[n] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " ")
}

var (
	// FirmwareCmd queries the firmware version.
	FirmwareCmd = ishell.Cmd{
		Name:    "fw",
		Aliases: []string{"version"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ver, err := s.Device().FirmwareVersion()
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, map[string]interface{}{"firmware": ver}, strconv.Itoa(int(ver)))
		},
	}

	// VBatCmd reads the battery voltage.
	VBatCmd = ishell.Cmd{
		Name:    "vbat",
		Aliases: []string{"battery"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			dev := s.Device()
			if dev.CachedFirmwareVersion() == 0 {
				if _, err := dev.FirmwareVersion(); err != nil {
					c.Err(err)
					return
				}
			}
			raw, err := dev.ReadVBatRaw()
			if err != nil {
				c.Err(err)
				return
			}
			volts := coproc.VBatVolts(raw)
			s.Output(c, map[string]interface{}{"volts": volts, "raw": raw},
				fmt.Sprintf("%.3fV (raw %d)", volts, raw))
		},
	}

	// UIDCmd reads the board identifier.
	UIDCmd = ishell.Cmd{
		Name:    "uid",
		Aliases: []string{"id"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			uid, err := s.Device().UniqueID()
			if err != nil {
				c.Err(err)
				return
			}
			str := hex.EncodeToString(uid[:])
			s.Output(c, map[string]string{"uid": str}, str)
		},
	}

	// InputsCmd reads and decodes the input word, which clears the latched changes.
	InputsCmd = ishell.Cmd{
		Name:    "inputs",
		Aliases: []string{"in"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			events := s.Device().ReadInputs()
			if s.OutputJSON {
				items := make([]map[string]interface{}, 0, len(events))
				for _, ev := range events {
					items = append(items, map[string]interface{}{
						"input":    ev.Input.String(),
						"released": ev.Released,
					})
				}
				s.Output(c, items, "")
				return
			}
			if len(events) == 0 {
				c.Println("no changes")
				return
			}
			for _, ev := range events {
				c.Println(ev.String())
			}
		},
	}

	// ReadCmd reads raw registers.
	ReadCmd = ishell.Cmd{
		Name:    "reg",
		Aliases: []string{"r"},
		Help:    "REGISTER [COUNT]",
		Func: ExpectArgs(1, func(c *ishell.Context) {
			s := ShellFrom(c)
			reg, err := coproc.ParseRegister(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			count := 1
			if len(c.Args) > 1 {
				if count, err = strconv.Atoi(c.Args[1]); err != nil || count <= 0 || int(reg)+count > 256 {
					c.Err(fmt.Errorf("invalid count %q", c.Args[1]))
					return
				}
			}
			data, err := s.Device().ReadRegister(reg, count)
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, map[string]interface{}{"register": reg.String(), "data": formatBytes(data)},
				fmt.Sprintf("%s: %s", reg, formatBytes(data)))
		}),
	}

	// WriteCmd writes raw registers.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "REGISTER BYTE...",
		Func: ExpectArgs(2, func(c *ishell.Context) {
			s := ShellFrom(c)
			reg, err := coproc.ParseRegister(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			data, err := parseBytes(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			if err := s.Device().WriteRegister(reg, data...); err != nil {
				c.Err(err)
				return
			}
			s.Output(c, map[string]bool{"ok": true}, "OK")
		}),
	}

	// ScratchCmd reads or writes a scratch slot.
	ScratchCmd = ishell.Cmd{
		Name: "scratch",
		Help: "SLOT [VALUE]",
		Func: ExpectArgs(1, func(c *ishell.Context) {
			s := ShellFrom(c)
			slot, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("invalid slot %q", c.Args[0]))
				return
			}
			if len(c.Args) > 1 {
				val, err := parseByte(c.Args[1])
				if err != nil {
					c.Err(err)
					return
				}
				if err := s.Device().WriteScratch(slot, val); err != nil {
					c.Err(err)
					return
				}
				s.Output(c, map[string]bool{"ok": true}, "OK")
				return
			}
			val, err := s.Device().ReadScratch(slot)
			if err != nil {
				c.Err(err)
				return
			}
			s.Output(c, map[string]interface{}{"slot": slot, "value": val},
				fmt.Sprintf("Scratch%d: %02x", slot, val))
		}),
	}

	// IRCmd sends an RC5 frame.
	IRCmd = ishell.Cmd{
		Name: "ir",
		Help: "ADDRESS COMMAND [toggle]",
		Func: ExpectArgs(2, func(c *ishell.Context) {
			s := ShellFrom(c)
			addr, err := strconv.ParseUint(c.Args[0], 0, 16)
			if err != nil {
				c.Err(fmt.Errorf("invalid address %q", c.Args[0]))
				return
			}
			cmd, err := strconv.ParseUint(c.Args[1], 0, 8)
			if err != nil {
				c.Err(fmt.Errorf("invalid command %q", c.Args[1]))
				return
			}
			toggle := len(c.Args) > 2 && c.Args[2] == "toggle"
			if err := s.Device().WriteIRTriggerRC5(toggle, uint16(addr), uint16(cmd)); err != nil {
				c.Err(err)
				return
			}
			s.Output(c, map[string]bool{"ok": true}, "OK")
		}),
	}

	// PressCmd presses an input on the simulator.
	PressCmd = ishell.Cmd{
		Name: "press",
		Help: "INPUT",
		Func: MustBeSim(ExpectArgs(1, func(c *ishell.Context) {
			in, err := parseInput(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Env.Sim.Press(in)
		})),
	}

	// ReleaseCmd releases an input on the simulator.
	ReleaseCmd = ishell.Cmd{
		Name: "release",
		Help: "INPUT",
		Func: MustBeSim(ExpectArgs(1, func(c *ishell.Context) {
			in, err := parseInput(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Env.Sim.Release(in)
		})),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := env.NewConfig()
	// the shell only pokes registers.
	conf.MQTTBrokerURL, conf.MonitorAddr = "", ""
	e := conf.MustNewEnv()
	err := New(e).Run(flag.Args()...)
	e.Close()
	if err != nil {
		log.Fatalln(err)
	}
}
