package lesson

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// BuiltinPrefix marks a lesson reference that names an embedded lesson
// instead of a file path.
const BuiltinPrefix = "builtin:"

//go:embed lessons/*.lua
var builtinFS embed.FS

// Builtins returns the names of the embedded lessons, sorted.
func Builtins() ([]string, error) {
	paths, err := fs.Glob(builtinFS, "lessons/*.lua")
	if err != nil {
		return nil, fmt.Errorf("glob builtin lessons: %w", err)
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, strings.TrimSuffix(path.Base(p), ".lua"))
	}
	sort.Strings(names)
	return names, nil
}

// LoadBuiltin loads the embedded lesson called name.
func LoadBuiltin(name string) (*Lesson, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, "/\\") {
		return nil, fmt.Errorf("invalid builtin lesson name %q", name)
	}
	data, err := fs.ReadFile(builtinFS, "lessons/"+name+".lua")
	if err != nil {
		return nil, fmt.Errorf("builtin lesson %q: %w", name, err)
	}
	return LoadLesson(name, string(data))
}

// Load resolves ref as a builtin lesson when it carries BuiltinPrefix and as
// a file path otherwise.
func Load(ref string) (*Lesson, error) {
	if name, ok := strings.CutPrefix(ref, BuiltinPrefix); ok {
		return LoadBuiltin(name)
	}
	return LoadLessonFromFile(ref)
}
