package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is an ordered list of ledger steps built by a Lua script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted call or expectation.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs a Lua script and returns the Scenario it builds.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

// LoadScenario runs Lua source and returns the Scenario it builds.
func LoadScenario(name, source string) (*Scenario, error) {
	state := newLuaState()
	if err := lua.LoadString(state, source); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	scenario, err := runChunk(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = name
	}
	return scenario, nil
}

func newLuaState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerScenarioType(state)
	registerScenarioConstructor(state)
	return state
}

func runChunk(state *lua.State) (*Scenario, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	return scenario, nil
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, []lua.RegistryFunction{{Name: "new", Function: scenarioNew}}, 0)
	state.SetGlobal("Scenario")
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	state.PushUserData(&Scenario{Name: name})
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

// Every method returns the scenario so calls can be chained.
var scenarioMethods = []lua.RegistryFunction{
	{Name: "as", Function: scenarioAs},
	{Name: "register", Function: tableStep("register")},
	{Name: "record_event", Function: tableStep("record_event")},
	{Name: "update_status", Function: tableStep("update_status")},
	{Name: "transfer", Function: tableStep("transfer")},
	{Name: "authorize", Function: tableStep("authorize")},
	{Name: "revoke", Function: tableStep("revoke")},
	{Name: "expect_product", Function: tableStep("expect_product")},
	{Name: "expect_error", Function: scenarioExpectError},
	{Name: "expect_count", Function: scenarioExpectCount},
	{Name: "expect_total", Function: scenarioExpectTotal},
	{Name: "expect_authorized", Function: scenarioExpectAuthorized},
	{Name: "verify", Function: scenarioVerify},
}

func scenarioAs(state *lua.State) int {
	scenario := checkScenario(state)
	actor := lua.CheckString(state, 2)
	appendStep(scenario, "as", map[string]any{"actor": actor})
	state.PushValue(1)
	return 1
}

func tableStep(kind string) lua.Function {
	return func(state *lua.State) int {
		scenario := checkScenario(state)
		lua.CheckType(state, 2, lua.TypeTable)
		appendStep(scenario, kind, tableToMap(state, 2))
		state.PushValue(1)
		return 1
	}
}

// scenarioExpectError marks the previous step as expected to fail with code.
func scenarioExpectError(state *lua.State) int {
	scenario := checkScenario(state)
	code := strings.ToUpper(strings.TrimSpace(lua.CheckString(state, 2)))
	if len(scenario.Steps) == 0 {
		lua.Errorf(state, "expect_error needs a preceding step")
		return 0
	}
	step := &scenario.Steps[len(scenario.Steps)-1]
	if !isCallStep(step.Kind) {
		lua.Errorf(state, "expect_error cannot follow %s", step.Kind)
		return 0
	}
	step.Args["expect_error"] = code
	state.PushValue(1)
	return 1
}

func scenarioExpectCount(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	count := lua.CheckInteger(state, 3)
	appendStep(scenario, "expect_count", map[string]any{"id": id, "count": count})
	state.PushValue(1)
	return 1
}

func scenarioExpectTotal(state *lua.State) int {
	scenario := checkScenario(state)
	total := lua.CheckInteger(state, 2)
	appendStep(scenario, "expect_total", map[string]any{"total": total})
	state.PushValue(1)
	return 1
}

func scenarioExpectAuthorized(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.CheckString(state, 2)
	handler := lua.CheckString(state, 3)
	want := true
	if !state.IsNoneOrNil(4) {
		want = state.ToBoolean(4)
	}
	appendStep(scenario, "expect_authorized", map[string]any{"id": id, "handler": handler, "authorized": want})
	state.PushValue(1)
	return 1
}

func scenarioVerify(state *lua.State) int {
	scenario := checkScenario(state)
	id := lua.OptString(state, 2, "")
	appendStep(scenario, "verify", map[string]any{"id": id})
	state.PushValue(1)
	return 1
}

func isCallStep(kind string) bool {
	switch kind {
	case "register", "record_event", "update_status", "transfer", "authorize", "revoke":
		return true
	}
	return false
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if scenario == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
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
		if math.Mod(value, 1) == 0 {
			return int(value)
		}
		return value
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToMap(state, index)
	default:
		return nil
	}
}
