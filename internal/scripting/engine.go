package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/l1jgo/devkit/internal/component"
	"github.com/l1jgo/devkit/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const entityTypeName = "ecs.entity"

// Engine wraps a single gopher-lua VM that runs entity script handlers.
// Single-goroutine access only (the frame loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger

	world   *ecs.World
	spawner Spawner
}

// Spawner instantiates named prefabs. *prefab.Library implements it.
type Spawner interface {
	Spawn(w *ecs.World, name string) (ecs.Entity, error)
}

// NewEngine creates a Lua engine with the ecs API installed and loads all
// scripts from the given directory. A missing directory is not an error.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	e.installAPI()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua source in the engine's VM.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// HasHandler reports whether a global Lua function with the given name exists.
func (e *Engine) HasHandler(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// Call invokes the Lua handler as handler(entity, ctx) where ctx carries the
// frame delta in seconds and the script's params table.
func (e *Engine) Call(handler string, ent ecs.Entity, dt time.Duration, params map[string]float64) error {
	fn, ok := e.vm.GetGlobal(handler).(*lua.LFunction)
	if !ok {
		return fmt.Errorf("lua handler %q not found", handler)
	}

	ctx := e.vm.NewTable()
	ctx.RawSetString("dt", lua.LNumber(dt.Seconds()))
	p := e.vm.NewTable()
	for k, v := range params {
		p.RawSetString(k, lua.LNumber(v))
	}
	ctx.RawSetString("params", p)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, e.pushEntity(ent), ctx); err != nil {
		return fmt.Errorf("lua %s: %w", handler, err)
	}
	return nil
}

// SetSpawner makes ecs.spawn(name) create prefabs from sp in w. Calling it
// again swaps the library, e.g. after a prefab reload.
func (e *Engine) SetSpawner(w *ecs.World, sp Spawner) {
	e.world = w
	e.spawner = sp
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// --- ecs API exposed to Lua ---

func (e *Engine) installAPI() {
	mt := e.vm.NewTypeMetatable(entityTypeName)
	e.vm.SetField(mt, "__tostring", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkEntity(L, 1).String()))
		return 1
	}))
	e.vm.SetField(mt, "__eq", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(checkEntity(L, 1) == checkEntity(L, 2)))
		return 1
	}))

	api := e.vm.NewTable()
	e.vm.SetFuncs(api, map[string]lua.LGFunction{
		"id":           luaID,
		"valid":        luaValid,
		"kill":         luaKill,
		"clone":        e.luaClone,
		"position":     luaPosition,
		"set_position": luaSetPosition,
		"velocity":     luaVelocity,
		"set_velocity": luaSetVelocity,
		"has":          luaHas,
		"spawn":        e.luaSpawn,
	})
	e.vm.SetGlobal("ecs", api)
}

func (e *Engine) pushEntity(ent ecs.Entity) *lua.LUserData {
	ud := e.vm.NewUserData()
	ud.Value = ent
	e.vm.SetMetatable(ud, e.vm.GetTypeMetatable(entityTypeName))
	return ud
}

func checkEntity(L *lua.LState, n int) ecs.Entity {
	ud := L.CheckUserData(n)
	ent, ok := ud.Value.(ecs.Entity)
	if !ok {
		L.ArgError(n, "entity expected")
	}
	return ent
}

func luaID(L *lua.LState) int {
	ent := checkEntity(L, 1)
	L.Push(lua.LNumber(ent.ID().Index()))
	L.Push(lua.LNumber(ent.ID().Generation()))
	return 2
}

func luaValid(L *lua.LState) int {
	L.Push(lua.LBool(checkEntity(L, 1).Valid()))
	return 1
}

func luaKill(L *lua.LState) int {
	if err := checkEntity(L, 1).Kill(); err != nil {
		L.RaiseError("kill: %s", err.Error())
	}
	return 0
}

func (e *Engine) luaClone(L *lua.LState) int {
	ent := checkEntity(L, 1)
	clone, err := ent.World().CloneEntity(ent)
	if err != nil {
		L.RaiseError("clone: %s", err.Error())
	}
	L.Push(e.pushEntity(clone))
	return 1
}

func luaHas(L *lua.LState) int {
	ent := checkEntity(L, 1)
	id, ok := ecs.Components().Lookup(L.CheckString(2))
	L.Push(lua.LBool(ok && ent.Has(id)))
	return 1
}

func luaPosition(L *lua.LState) int {
	node, err := component.NodeType.Get(checkEntity(L, 1))
	if err != nil {
		L.RaiseError("position: %s", err.Error())
	}
	return pushVec(L, node.Position)
}

func luaSetPosition(L *lua.LState) int {
	node, err := component.NodeType.Get(checkEntity(L, 1))
	if err != nil {
		L.RaiseError("set_position: %s", err.Error())
	}
	node.Position = checkVec(L, 2)
	return 0
}

func luaVelocity(L *lua.LState) int {
	vel, err := component.VelocityType.Get(checkEntity(L, 1))
	if err != nil {
		L.RaiseError("velocity: %s", err.Error())
	}
	return pushVec(L, vel.Linear)
}

func luaSetVelocity(L *lua.LState) int {
	vel, err := component.VelocityType.Get(checkEntity(L, 1))
	if err != nil {
		L.RaiseError("set_velocity: %s", err.Error())
	}
	vel.Linear = checkVec(L, 2)
	return 0
}

func (e *Engine) luaSpawn(L *lua.LState) int {
	name := L.CheckString(1)
	if e.spawner == nil {
		L.RaiseError("spawn: no prefab library loaded")
	}
	ent, err := e.spawner.Spawn(e.world, name)
	if err != nil {
		L.RaiseError("spawn %s: %s", name, err.Error())
	}
	L.Push(e.pushEntity(ent))
	return 1
}
