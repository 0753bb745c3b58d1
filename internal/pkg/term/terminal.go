// Package term определяет параметры терминала, в который выводится переписка.
package term

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// DefaultWidth используется, когда ширину определить не удалось (вывод в файл или канал).
const DefaultWidth = 120

// Terminal описывает поток вывода и, если это терминал, его размеры.
type Terminal struct {
	in    *bufio.Reader
	out   io.Writer
	fd    int
	isTTY bool
}

// NewTerminal создает Terminal поверх in и out. Терминалом считается только out, являющийся *os.File.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{
		in:  bufio.NewReader(in),
		out: out,
		fd:  -1,
	}
	if f, ok := out.(*os.File); ok {
		t.fd = int(f.Fd())
		t.isTTY = term.IsTerminal(t.fd)
	}
	return t
}

// IsTerminal сообщает, подключен ли вывод к терминалу.
func (t *Terminal) IsTerminal() bool {
	return t.isTTY
}

// Width возвращает ширину терминала в колонках или DefaultWidth.
func (t *Terminal) Width() int {
	if !t.isTTY {
		return DefaultWidth
	}
	w, _, err := term.GetSize(t.fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// Confirm задает вопрос да/нет. Вне терминала ответ всегда отрицательный.
func (t *Terminal) Confirm(question string) (bool, error) {
	if !t.isTTY {
		return false, nil
	}
	fmt.Fprintf(t.out, "%s [y/N]: ", question)
	answer, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, xerrors.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "д", "да":
		return true, nil
	}
	return false, nil
}
