package console

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/intcode/config"
	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/vmerrors"
)

type lineReader interface {
	Readline() (string, error)
}

// Console is an interactive I/O driver. INPUT blocks on the terminal,
// OUTPUT is printed as it arrives.
type Console struct {
	rl      lineReader
	closer  io.Closer
	out     io.Writer
	ascii   bool
	pending []int64
	lineEnd bool
}

// New opens a readline prompt with history. In ASCII mode each line is
// fed as bytes followed by a newline, otherwise as comma or space
// separated integers.
func New(cfg config.ConsoleConfig, ascii bool) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      cfg.Prompt,
		HistoryFile: cfg.HistoryFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start readline: %w", err)
	}
	return &Console{rl: rl, closer: rl, out: rl.Stdout(), ascii: ascii}, nil
}

func (c *Console) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// Driver returns the console as a VM driver.
func (c *Console) Driver() intcode.IO {
	return intcode.Split{In: intcode.InputFunc(c.read), Out: intcode.OutputFunc(c.write)}
}

func (c *Console) read() (int64, error) {
	for len(c.pending) == 0 {
		if c.lineEnd {
			// finish an ASCII prompt the program left open
			fmt.Fprintln(c.out)
			c.lineEnd = false
		}
		line, err := c.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w (console closed)", vmerrors.ErrInputExhausted)
		}
		if err != nil {
			return 0, err
		}
		values, err := c.parse(line)
		if err != nil {
			fmt.Fprintf(c.out, "invalid input: %v\n", err)
			continue
		}
		log.Debug(log.ConsoleMonitoring, "console input", "values", len(values))
		c.pending = values
	}
	v := c.pending[0]
	c.pending = c.pending[1:]
	return v, nil
}

func (c *Console) parse(line string) ([]int64, error) {
	if c.ascii {
		values := make([]int64, 0, len(line)+1)
		for i := 0; i < len(line); i++ {
			values = append(values, int64(line[i]))
		}
		return append(values, '\n'), nil
	}
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	values := make([]int64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func (c *Console) write(value int64) error {
	if c.ascii && value >= 0 && value < 128 {
		c.lineEnd = value != '\n'
		_, err := c.out.Write([]byte{byte(value)})
		return err
	}
	_, err := fmt.Fprintln(c.out, value)
	return err
}
