package scripting

import (
	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"
)

// pushVec pushes v as three numbers.
func pushVec(L *lua.LState, v mgl64.Vec3) int {
	L.Push(lua.LNumber(v[0]))
	L.Push(lua.LNumber(v[1]))
	L.Push(lua.LNumber(v[2]))
	return 3
}

// checkVec reads three numbers starting at argument n.
func checkVec(L *lua.LState, n int) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(L.CheckNumber(n)),
		float64(L.CheckNumber(n + 1)),
		float64(L.CheckNumber(n + 2)),
	}
}
