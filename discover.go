package dzextract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bodgit/dzextract/container"
	"github.com/bodgit/dzextract/raster"
)

// ErrNothingToDo is returned when a directory holds no channel files
var ErrNothingToDo = errors.New("dzextract: nothing to do")

var (
	reExt = regexp.MustCompile(`\.tiff?$`)
	reZ1  = regexp.MustCompile(`-Z1\.tiff?$`)
)

// Channel is one source container of a stack
type Channel struct {
	Path string
	// Color is the matched fluorophore name, empty when the slot was
	// assigned by position
	Color string
	// Slot is the composite colour component: 0 red, 1 green, 2 blue
	Slot int
}

// Stack is the set of co-registered channel files converted together
type Stack struct {
	Name     string
	Source   string
	Channels []Channel
}

// Slots returns the number of composite slots the stack needs
func (s *Stack) Slots() int {
	n := 0
	for _, ch := range s.Channels {
		if ch.Slot+1 > n {
			n = ch.Slot + 1
		}
	}
	return n
}

func colorPattern(color, suffix string) *regexp.Regexp {
	return regexp.MustCompile(`^.*-` + regexp.QuoteMeta(color) + suffix)
}

func containerFiles(dir string) ([]string, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	info, err := d.Stat()
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, errors.New("not a directory")
	}

	names, err := d.Readdirnames(0)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, name := range names {
		if name[0] != '.' && reExt.MatchString(name) {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	return files, nil
}

func matching(files []string, re *regexp.Regexp) []string {
	var m []string
	for _, f := range files {
		if re.MatchString(f) {
			m = append(m, f)
		}
	}
	return m
}

// stackSuffix picks the Z-stack to convert. When Z markers are present the
// middle stack is used
func stackSuffix(files []string, tables [][]string) (string, error) {
	z1 := matching(files, reZ1)
	if len(z1) == 0 {
		return `\.tiff?$`, nil
	}

	for _, f := range z1 {
		known := false
		for _, colors := range tables {
			for _, color := range colors {
				if colorPattern(color, `-Z1\.tiff?$`).MatchString(f) {
					known = true
				}
			}
		}
		if !known {
			return "", fmt.Errorf("%w: unknown color for file %q", container.ErrUnsupported, f)
		}
	}

	stacks := len(files) / len(z1)
	return fmt.Sprintf(`-Z%d\.tiff?$`, (stacks+1)/2), nil
}

// Discover selects the channel files of dir. Each fluorophore table in
// tables maps to the composite slot of the same index; for each table the
// first colour matching exactly one file is used. When no file matches a
// known colour every container file of the stack is used, in name order.
func Discover(dir string, tables [][]string) (*Stack, error) {
	files, err := containerFiles(dir)
	if err != nil {
		return nil, err
	}

	suffix, err := stackSuffix(files, tables)
	if err != nil {
		return nil, err
	}

	stack := &Stack{
		Source: dir,
	}

	for slot, colors := range tables {
		for _, color := range colors {
			if m := matching(files, colorPattern(color, suffix)); len(m) == 1 {
				stack.Channels = append(stack.Channels, Channel{
					Path:  filepath.Join(dir, m[0]),
					Color: color,
					Slot:  slot,
				})
				break
			}
		}
	}

	if len(stack.Channels) == 0 {
		for i, f := range matching(files, regexp.MustCompile(suffix)) {
			stack.Channels = append(stack.Channels, Channel{
				Path: filepath.Join(dir, f),
				Slot: i,
			})
		}
	}

	switch n := len(stack.Channels); {
	case n == 0:
		return nil, ErrNothingToDo
	case stack.Slots() > raster.MaxChannels:
		return nil, fmt.Errorf("%w: %d channels", container.ErrUnsupported, n)
	}

	stack.Name = stackName(stack.Channels[0])

	return stack, nil
}

func stackName(ch Channel) string {
	base := filepath.Base(ch.Path)
	if ch.Color != "" {
		re := regexp.MustCompile(`-` + regexp.QuoteMeta(ch.Color) + `(-Z[0-9]+)?\.tiff?$`)
		if name := re.ReplaceAllString(base, ""); name != "" {
			return name
		}
	}
	return regexp.MustCompile(`(-Z[0-9]+)?\.tiff?$`).ReplaceAllString(base, "")
}
