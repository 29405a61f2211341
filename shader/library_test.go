package shader

import (
	"errors"
	"strings"
	"testing"
)

func TestPreprocessConditionals(t *testing.T) {
	l := NewLibrary()
	src := "a\n#ifdef X\nb\n#ifndef Y\nc\n#else\nd\n#endif\n#else\ne\n#endif\nf"

	tests := []struct {
		name    string
		defines Defines
		want    string
	}{
		{"none", Defines{}, "a\ne\nf"},
		{"x", Defines{"X": ""}, "a\nb\nc\nf"},
		{"x and y", Defines{"X": "", "Y": ""}, "a\nb\nd\nf"},
		{"y only", Defines{"Y": ""}, "a\ne\nf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Preprocess(src, tt.defines, nil)
			if err != nil {
				t.Fatalf("Preprocess: %v", err)
			}
			if got != tt.want {
				t.Errorf("Preprocess = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreprocessLoops(t *testing.T) {
	l := NewLibrary()
	src := "#for i in 0..count\nw{i}\n#endfor\nend"
	got, err := l.Preprocess(src, nil, map[string]int{"count": 3})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if want := "w0\nw1\nw2\nend"; got != want {
		t.Errorf("Preprocess = %q, want %q", got, want)
	}

	got, err = l.Preprocess(src, nil, map[string]int{"count": 0})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if got != "end" {
		t.Errorf("empty loop = %q, want %q", got, "end")
	}
}

func TestPreprocessIncludesAndPrelude(t *testing.T) {
	l := NewLibrary()
	l.RegisterInclude("common", "fn helper() {}")
	l.Register("prog", "#include <common>\nbody")

	d := NewDefines()
	d.SetFloat("WEIGHT", 0.5)
	d.Flag("FLAG")
	got, err := l.Build("prog", d, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := "const WEIGHT = 0.5;\n\nfn helper() {}\nbody"
	if got != want {
		t.Errorf("Build = %q, want %q", got, want)
	}
}

func TestPreprocessErrors(t *testing.T) {
	l := NewLibrary()
	tests := []struct {
		name string
		src  string
	}{
		{"unknown include", "#include <nope>"},
		{"unterminated ifdef", "#ifdef X\na"},
		{"stray endif", "#endif"},
		{"stray else", "#else"},
		{"duplicate else", "#ifdef X\n#else\n#else\n#endif"},
		{"unterminated for", "#for i in 0..2\na"},
		{"stray endfor", "#endfor"},
		{"unknown bound", "#for i in 0..n\na\n#endfor"},
		{"malformed for", "#for i 0..2\n#endfor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Preprocess(tt.src, nil, nil)
			if !errors.Is(err, ErrPreprocess) {
				t.Errorf("err = %v, want ErrPreprocess", err)
			}
		})
	}
}

func TestBuildUnknownSource(t *testing.T) {
	_, err := NewLibrary().Build("missing", nil, nil)
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("err = %v, want ErrUnknownSource", err)
	}
}

func TestDefaultLibraryBuildsBuiltins(t *testing.T) {
	l := DefaultLibrary()
	for _, name := range []string{
		"pass", "kernel_blur", "extract_highlights", "bloom_merge",
		"sharpen", "grain", "chromatic_aberration", "fxaa",
		"image_processing", "circle_of_confusion", "depth_of_field_merge",
	} {
		if _, ok := l.Source(name); !ok {
			t.Errorf("DefaultLibrary missing %q", name)
		}
	}

	d := NewDefines()
	d.Flag("DOF")
	d.SetFloat("CENTER_WEIGHT", 0.2)
	for i, w := range []float32{0.1, 0.2} {
		d.SetFloat("KERNEL_OFFSET"+string(rune('0'+i)), float32(i))
		d.SetFloat("KERNEL_WEIGHT"+string(rune('0'+i)), w)
	}
	src, err := l.Build("kernel_blur", d, map[string]int{"varyingCount": 2, "depCount": 0})
	if err != nil {
		t.Fatalf("Build(kernel_blur): %v", err)
	}
	for _, want := range []string{"KERNEL_OFFSET1", "circleOfConfusionSampler", "const CENTER_WEIGHT = 0.2;", "fn vs_main"} {
		if !strings.Contains(src, want) {
			t.Errorf("kernel_blur source missing %q", want)
		}
	}
	if strings.Contains(src, "#") {
		t.Error("kernel_blur source still has directives")
	}
	if strings.Contains(src, "KERNEL_DEP_OFFSET") {
		t.Error("kernel_blur source has dependent taps with depCount 0")
	}
}
