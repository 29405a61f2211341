package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
)

//go:embed shaders/*.wgsl shaders/include/*.wgsl
var embedded embed.FS

// Errors returned while building program sources.
var (
	ErrUnknownSource = errors.New("shader: unknown program source")
	ErrPreprocess    = errors.New("shader: preprocess failed")
)

// Library holds WGSL program sources and include chunks by name.
type Library struct {
	sources  map[string]string
	includes map[string]string
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		sources:  make(map[string]string),
		includes: make(map[string]string),
	}
}

// DefaultLibrary creates a library holding the built-in post-process
// programs. Program names are the file names without extension
// (for example "kernel_blur").
func DefaultLibrary() *Library {
	l := NewLibrary()
	load := func(dir string, register func(name, src string)) {
		entries, err := fs.ReadDir(embedded, dir)
		if err != nil {
			panic("shader: embedded sources missing: " + err.Error())
		}
		for _, e := range entries {
			if e.IsDir() || path.Ext(e.Name()) != ".wgsl" {
				continue
			}
			src, err := fs.ReadFile(embedded, path.Join(dir, e.Name()))
			if err != nil {
				panic("shader: embedded source unreadable: " + err.Error())
			}
			register(strings.TrimSuffix(e.Name(), ".wgsl"), string(src))
		}
	}
	load("shaders", l.Register)
	load("shaders/include", l.RegisterInclude)
	return l
}

// Register adds or replaces a program source.
func (l *Library) Register(name, src string) { l.sources[name] = src }

// RegisterInclude adds or replaces an include chunk.
func (l *Library) RegisterInclude(name, src string) { l.includes[name] = src }

// Source returns the raw source of a program.
func (l *Library) Source(name string) (string, bool) {
	src, ok := l.sources[name]
	return src, ok
}

// Build returns the preprocessed source of a program.
func (l *Library) Build(name string, defines Defines, index map[string]int) (string, error) {
	src, ok := l.sources[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return l.Preprocess(src, defines, index)
}

// Preprocess expands includes, #for blocks and conditionals, then prepends
// const declarations for numeric defines.
func (l *Library) Preprocess(src string, defines Defines, index map[string]int) (string, error) {
	lines, err := l.expandIncludes(strings.Split(src, "\n"), 0)
	if err != nil {
		return "", err
	}
	lines, err = expandLoops(lines, index)
	if err != nil {
		return "", err
	}
	lines, err = applyConditionals(lines, defines)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, name := range defines.Names() {
		v := defines[name]
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			continue
		}
		fmt.Fprintf(&b, "const %s = %s;\n", name, v)
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String(), nil
}

const maxIncludeDepth = 8

func (l *Library) expandIncludes(lines []string, depth int) ([]string, error) {
	if depth > maxIncludeDepth {
		return nil, fmt.Errorf("%w: include depth exceeds %d", ErrPreprocess, maxIncludeDepth)
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#include") {
			out = append(out, line)
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(trimmed, "#include"))
		name = strings.TrimSuffix(strings.TrimPrefix(name, "<"), ">")
		chunk, ok := l.includes[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown include %q", ErrPreprocess, name)
		}
		expanded, err := l.expandIncludes(strings.Split(strings.TrimRight(chunk, "\n"), "\n"), depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func expandLoops(lines []string, index map[string]int) ([]string, error) {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "#endfor") {
			return nil, fmt.Errorf("%w: #endfor without #for", ErrPreprocess)
		}
		if !strings.HasPrefix(trimmed, "#for") {
			out = append(out, lines[i])
			continue
		}

		variable, from, to, err := parseFor(trimmed, index)
		if err != nil {
			return nil, err
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			t := strings.TrimSpace(lines[j])
			if strings.HasPrefix(t, "#for") {
				return nil, fmt.Errorf("%w: nested #for", ErrPreprocess)
			}
			if strings.HasPrefix(t, "#endfor") {
				end = j
				break
			}
		}
		if end < 0 {
			return nil, fmt.Errorf("%w: #for without #endfor", ErrPreprocess)
		}

		placeholder := "{" + variable + "}"
		for n := from; n < to; n++ {
			value := strconv.Itoa(n)
			for _, body := range lines[i+1 : end] {
				out = append(out, strings.ReplaceAll(body, placeholder, value))
			}
		}
		i = end
	}
	return out, nil
}

// parseFor parses "#for i in 0..bound".
func parseFor(line string, index map[string]int) (variable string, from, to int, err error) {
	fields := strings.Fields(strings.TrimPrefix(line, "#for"))
	if len(fields) != 3 || fields[1] != "in" {
		return "", 0, 0, fmt.Errorf("%w: malformed %q", ErrPreprocess, line)
	}
	bounds := strings.SplitN(fields[2], "..", 2)
	if len(bounds) != 2 {
		return "", 0, 0, fmt.Errorf("%w: malformed range in %q", ErrPreprocess, line)
	}
	resolve := func(s string) (int, error) {
		if n, err := strconv.Atoi(s); err == nil {
			return n, nil
		}
		if n, ok := index[s]; ok {
			return n, nil
		}
		return 0, fmt.Errorf("%w: unknown index parameter %q", ErrPreprocess, s)
	}
	if from, err = resolve(bounds[0]); err != nil {
		return "", 0, 0, err
	}
	if to, err = resolve(bounds[1]); err != nil {
		return "", 0, 0, err
	}
	return fields[0], from, to, nil
}

type condFrame struct {
	parentActive bool
	taken        bool
	active       bool
	sawElse      bool
}

func applyConditionals(lines []string, defines Defines) ([]string, error) {
	out := make([]string, 0, len(lines))
	var stack []condFrame
	active := true

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#ifdef"), strings.HasPrefix(trimmed, "#ifndef"):
			negate := strings.HasPrefix(trimmed, "#ifndef")
			name := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(trimmed, "#ifndef"), "#ifdef"))
			if name == "" {
				return nil, fmt.Errorf("%w: %q without a name", ErrPreprocess, trimmed)
			}
			cond := defines.Has(name) != negate
			stack = append(stack, condFrame{parentActive: active, taken: cond, active: active && cond})
			active = active && cond
		case strings.HasPrefix(trimmed, "#else"):
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: #else without #ifdef", ErrPreprocess)
			}
			top := &stack[len(stack)-1]
			if top.sawElse {
				return nil, fmt.Errorf("%w: duplicate #else", ErrPreprocess)
			}
			top.sawElse = true
			top.active = top.parentActive && !top.taken
			active = top.active
		case strings.HasPrefix(trimmed, "#endif"):
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: #endif without #ifdef", ErrPreprocess)
			}
			active = stack[len(stack)-1].parentActive
			stack = stack[:len(stack)-1]
		default:
			if active {
				out = append(out, line)
			}
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: unterminated #ifdef", ErrPreprocess)
	}
	return out, nil
}
