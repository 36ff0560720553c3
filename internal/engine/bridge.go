package engine

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ToLua converts a Go value into its Lua equivalent. Unhandled types
// fall back to their string form.
func ToLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case []byte:
		return lua.LString(x)
	case []string:
		tbl := L.NewTable()
		for _, s := range x {
			tbl.Append(lua.LString(s))
		}
		return tbl
	case map[string]string:
		tbl := L.NewTable()
		for k, val := range x {
			tbl.RawSetString(k, lua.LString(val))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", x))
	}
}

// ToGo converts a Lua value into a plain Go value. Tables with a
// contiguous array part become slices, everything else becomes a map.
func ToGo(v lua.LValue) any {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		return tableToGo(x)
	default:
		return x.String()
	}
}

func tableToGo(tbl *lua.LTable) any {
	maxn := tbl.MaxN()
	if maxn > 0 {
		arr := make([]any, 0, maxn)
		for i := 1; i <= maxn; i++ {
			arr = append(arr, ToGo(tbl.RawGetInt(i)))
		}
		return arr
	}
	m := make(map[string]any)
	tbl.ForEach(func(k, val lua.LValue) {
		m[k.String()] = ToGo(val)
	})
	return m
}
