package lesson

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const lessonTypeName = "lesson"

// Lesson is an ordered list of steps declared by a Lua script.
type Lesson struct {
	Name  string
	Steps []Step
}

// Step is one declared operation and its arguments.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadLessonFromFile runs the Lua script at path and returns the Lesson it
// builds. Lessons without a name are named after the file.
func LoadLessonFromFile(path string) (*Lesson, error) {
	state := newLessonState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	lesson, err := runLessonChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(lesson.Name) == "" {
		lesson.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return lesson, nil
}

// LoadLesson runs Lua source and returns the Lesson it builds. name labels
// the chunk in Lua error messages and names an unnamed lesson.
func LoadLesson(name, source string) (*Lesson, error) {
	state := newLessonState()
	if err := lua.LoadBuffer(state, source, name, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	lesson, err := runLessonChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(lesson.Name) == "" {
		lesson.Name = name
	}
	return lesson, nil
}

func newLessonState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLessonType(state)
	registerLessonConstructor(state)
	return state
}

func runLessonChunk(state *lua.State) (*Lesson, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("lesson script must return Lesson")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	lesson, ok := ud.(*Lesson)
	if !ok || lesson == nil {
		return nil, fmt.Errorf("lesson script returned invalid Lesson")
	}
	return lesson, nil
}

func registerLessonType(state *lua.State) {
	lua.NewMetaTable(state, lessonTypeName)
	state.NewTable()
	lua.SetFunctions(state, lessonMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerLessonConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, lessonConstructor, 0)
	state.SetGlobal("Lesson")
}

var lessonConstructor = []lua.RegistryFunction{
	{Name: "new", Function: lessonNew},
}

func lessonNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	state.PushUserData(&Lesson{Name: name})
	lua.SetMetaTableNamed(state, lessonTypeName)
	return 1
}

// Every step method takes one options table and returns the lesson so calls
// can be chained.
var lessonMethods = []lua.RegistryFunction{
	{Name: "primes", Function: tableStep("primes")},
	{Name: "n", Function: optionalTableStep("n")},
	{Name: "phi", Function: optionalTableStep("phi")},
	{Name: "choose_e", Function: tableStep("choose_e")},
	{Name: "compute_d", Function: optionalTableStep("compute_d")},
	{Name: "encrypt", Function: tableStep("encrypt")},
	{Name: "decrypt", Function: optionalTableStep("decrypt")},
	{Name: "round_trip", Function: optionalTableStep("round_trip")},
	{Name: "mod_pow", Function: tableStep("mod_pow")},
	{Name: "gcd", Function: tableStep("gcd")},
	{Name: "inverse", Function: tableStep("inverse")},
	{Name: "is_prime", Function: tableStep("is_prime")},
}

func tableStep(kind string) lua.Function {
	return func(state *lua.State) int {
		lesson := checkLesson(state)
		lua.CheckType(state, 2, lua.TypeTable)
		appendStep(lesson, kind, tableToMap(state, 2))
		state.PushValue(1)
		return 1
	}
}

func optionalTableStep(kind string) lua.Function {
	return func(state *lua.State) int {
		lesson := checkLesson(state)
		appendStep(lesson, kind, optionalTable(state, 2))
		state.PushValue(1)
		return 1
	}
}

func checkLesson(state *lua.State) *Lesson {
	ud := lua.CheckUserData(state, 1, lessonTypeName)
	if lesson, ok := ud.(*Lesson); ok && lesson != nil {
		return lesson
	}
	lua.ArgumentError(state, 1, "lesson expected")
	return nil
}

func appendStep(lesson *Lesson, kind string, data map[string]any) {
	if lesson == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	lesson.Steps = append(lesson.Steps, Step{Kind: kind, Args: data})
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToMap(state, index)
	default:
		return nil
	}
}

// normalizeNumber turns integral Lua numbers into int64. Lua numbers are
// float64, so integers above 2^53 are already rounded by the time they get here.
func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 && value >= math.MinInt64 && value < math.MaxInt64 {
		return int64(value)
	}
	return value
}
