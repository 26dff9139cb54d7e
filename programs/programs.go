package programs

import (
	"embed"
	"fmt"
	"os"
	"sort"

	"github.com/colorfulnotion/intcode/intcode/program"
	"github.com/colorfulnotion/intcode/vmerrors"
)

//go:embed samples/*.txt
var samplesFS embed.FS

type Sample struct {
	Name        string
	File        string
	Description string
}

var samples = map[string]Sample{
	"add":          {File: "add.txt", Description: "adds and multiplies in place, leaves 3500 in cell 0"},
	"compare8":     {File: "compare8.txt", Description: "prints 999, 1000 or 1001 for input below, equal to or above 8"},
	"quine":        {File: "quine.txt", Description: "prints its own image using relative addressing"},
	"amp-serial":   {File: "amp-serial.txt", Description: "amplifier that appends its phase digit to the signal"},
	"amp-feedback": {File: "amp-feedback.txt", Description: "amplifier for a feedback ring"},
	"nic-nat":      {File: "nic-nat.txt", Description: "NIC where node 0 sends one packet to the NAT, then all nodes poll"},
	"echo":         {File: "echo.txt", Description: "echoes input until a newline"},
}

// ReadProgram loads an embedded sample by name, or else a file at id.
func ReadProgram(id string) (program.Program, error) {
	var data []byte
	var err error
	sample, ok := samples[id]
	if ok {
		data, err = samplesFS.ReadFile("samples/" + sample.File)
		if err != nil {
			return nil, err
		}
	} else {
		data, err = os.ReadFile(id)
		if err != nil {
			return nil, fmt.Errorf("%w (%s: %v)", vmerrors.ErrUnknownProgram, id, err)
		}
	}
	return program.Parse(string(data))
}

// List returns every embedded sample, sorted by name.
func List() []Sample {
	out := make([]Sample, 0, len(samples))
	for name, s := range samples {
		s.Name = name
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
