package engine

import (
	"reflect"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestToLuaAndBack(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"int", 42, float64(42)},
		{"string", "hello", "hello"},
		{"bytes", []byte("doc"), "doc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToGo(ToLua(L, tt.in))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("round trip = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestToLuaStringSlice(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	got := ToGo(ToLua(L, []string{"a", "b"}))
	want := []any{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("slice round trip = %v, want %v", got, want)
	}
}

func TestToGoTableAsMap(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	tbl := L.NewTable()
	tbl.RawSetString("ready", lua.LTrue)
	tbl.RawSetString("count", lua.LNumber(3))

	got, ok := ToGo(tbl).(map[string]any)
	if !ok {
		t.Fatalf("ToGo(table) = %T, want map", ToGo(tbl))
	}
	if got["ready"] != true {
		t.Errorf("ready = %v, want true", got["ready"])
	}
	if got["count"] != float64(3) {
		t.Errorf("count = %v, want 3", got["count"])
	}
}
