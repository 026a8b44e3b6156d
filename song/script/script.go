// Package script plays songs written as Lua scripts. A script drives the
// sequencer through three globals:
//
//	tempo(bpm)
//	play(note, ticks)   -- note is a half-period or a name such as "C#5"
//	rest(ticks)
//
// ticks defaults to 1. note(name) returns the half-period for a name, and
// MIDDLE_A holds the half-period of A4. Only the base, table, string and
// math libraries are loaded.
package script

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"launchtone/core"
	"launchtone/song"
)

var (
	ErrBadNote     = errors.New("note must be a half-period or a note name")
	ErrBadArgument = errors.New("argument out of range")
)

// Run executes src against p
func Run(src string, p song.Player) error {
	return run(p, func(L *lua.LState) error { return L.DoString(src) })
}

// RunFile executes the script at path against p
func RunFile(path string, p song.Player) error {
	return run(p, func(L *lua.LState) error { return L.DoFile(path) })
}

func run(p song.Player, exec func(*lua.LState) error) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	if err := openLibs(L); err != nil {
		return err
	}

	e := &engine{player: p}
	e.register(L)

	if err := exec(L); err != nil {
		// Failures raised by the bindings keep their identity
		if e.playerErr != nil {
			return fmt.Errorf("song aborted: %w", e.playerErr)
		}
		if e.argErr != nil {
			return fmt.Errorf("script error: %w", e.argErr)
		}
		return fmt.Errorf("script error: %w", err)
	}
	return nil
}

func openLibs(L *lua.LState) error {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			return fmt.Errorf("failed to open lua library %s: %w", lib.name, err)
		}
	}
	return nil
}

// engine binds the Lua globals to a player and remembers the error that
// stopped the script
type engine struct {
	player    song.Player
	playerErr error
	argErr    error
}

func (e *engine) register(L *lua.LState) {
	L.SetGlobal("tempo", L.NewFunction(e.tempo))
	L.SetGlobal("play", L.NewFunction(e.play))
	L.SetGlobal("rest", L.NewFunction(e.rest))
	L.SetGlobal("note", L.NewFunction(e.note))
	L.SetGlobal("MIDDLE_A", lua.LNumber(core.MiddleA))
}

// badArg aborts the script over an argument it passed
func (e *engine) badArg(L *lua.LState, err error) int {
	e.argErr = err
	L.RaiseError("%s", err.Error())
	return 0
}

// aborted stops the script after the player failed
func (e *engine) aborted(L *lua.LState, err error) int {
	e.playerErr = err
	L.RaiseError("%s", err.Error())
	return 0
}

func (e *engine) tempo(L *lua.LState) int {
	bpm, err := checkUint(L, 1)
	if err != nil {
		return e.badArg(L, err)
	}
	if err := e.player.SetTempo(bpm); err != nil {
		return e.aborted(L, err)
	}
	return 0
}

func (e *engine) play(L *lua.LState) int {
	note, err := checkNote(L, 1)
	if err != nil {
		return e.badArg(L, err)
	}
	ticks, err := optTicks(L, 2)
	if err != nil {
		return e.badArg(L, err)
	}
	if err := e.player.Play(note, ticks); err != nil {
		return e.aborted(L, err)
	}
	return 0
}

func (e *engine) rest(L *lua.LState) int {
	ticks, err := optTicks(L, 1)
	if err != nil {
		return e.badArg(L, err)
	}
	if err := e.player.Rest(ticks); err != nil {
		return e.aborted(L, err)
	}
	return 0
}

func (e *engine) note(L *lua.LState) int {
	note, err := checkNote(L, 1)
	if err != nil {
		return e.badArg(L, err)
	}
	L.Push(lua.LNumber(note))
	return 1
}

func checkUint(L *lua.LState, n int) (uint32, error) {
	v := L.CheckNumber(n)
	if v < 0 || v > 0xFFFFFFFF || v != lua.LNumber(uint32(v)) {
		return 0, fmt.Errorf("%w: %v", ErrBadArgument, v)
	}
	return uint32(v), nil
}

func optTicks(L *lua.LState, n int) (uint32, error) {
	if L.Get(n) == lua.LNil {
		return 1, nil
	}
	return checkUint(L, n)
}

func checkNote(L *lua.LState, n int) (uint32, error) {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		return checkUint(L, n)
	case lua.LString:
		midi, err := core.ParseNote(string(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadNote, string(v))
		}
		return core.NoteHalfPeriod(midi), nil
	default:
		return 0, ErrBadNote
	}
}
