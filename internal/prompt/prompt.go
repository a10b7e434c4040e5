package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/san-kum/attractor/internal/dynamo"
)

// Reader asks the user for a single real number.
type Reader interface {
	ReadFloat(ctx context.Context, message string) (float64, error)
}

// New returns an Interactive reader when in is a terminal and a Line
// reader otherwise.
func New(in *os.File, out io.Writer) Reader {
	if isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd()) {
		return NewInteractive(in, out)
	}
	return NewLine(in, out)
}

// ParseFloat parses one line of user input. Anything other than a single
// finite number is an ErrUserInput.
func ParseFloat(input string) (float64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("%w: empty input", dynamo.ErrUserInput)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", dynamo.ErrUserInput, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", dynamo.ErrUserInput, s)
	}
	return v, nil
}

// Line prints the message and reads one line.
type Line struct {
	r *bufio.Reader
	w io.Writer
}

func NewLine(r io.Reader, w io.Writer) *Line {
	return &Line{r: bufio.NewReader(r), w: w}
}

func (l *Line) ReadFloat(ctx context.Context, message string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if _, err := fmt.Fprintf(l.w, "%s ", message); err != nil {
		return 0, err
	}

	line, err := l.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: no input", dynamo.ErrUserInput)
		}
		return 0, err
	}
	return ParseFloat(line)
}
