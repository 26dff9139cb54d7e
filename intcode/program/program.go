package program

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/colorfulnotion/intcode/vmerrors"
	"golang.org/x/crypto/blake2b"
)

// Program is a flat Intcode image as loaded from its comma-separated text.
type Program []int64

// Parse decodes the comma-separated wire format. Whitespace around each
// value and a trailing newline are tolerated; empty fields are not.
func Parse(text string) (Program, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w (empty program)", vmerrors.ErrInvalidProgram)
	}
	fields := strings.Split(text, ",")
	p := make(Program, 0, len(fields))
	for i, raw := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w (cell %d: %q)", vmerrors.ErrInvalidProgram, i, raw)
		}
		p = append(p, v)
	}
	return p, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) Program {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Encode renders cells in the comma-separated wire format.
func Encode(cells []int64) string {
	var sb strings.Builder
	for i, v := range cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(v, 10))
	}
	return sb.String()
}

func (p Program) String() string {
	return Encode(p)
}

// Hash returns the blake2b-256 digest of the encoded program.
func (p Program) Hash() [32]byte {
	return blake2b.Sum256([]byte(Encode(p)))
}

// ShortHash is the first eight hex digits of Hash, used to tag log lines.
func (p Program) ShortHash() string {
	h := p.Hash()
	return hex.EncodeToString(h[:4])
}

// Clone returns an independent copy of the image.
func (p Program) Clone() Program {
	return append(Program(nil), p...)
}
