package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/item"
)

// registerModules installs the engine global into L. engine.log.{debug,info,warn}
// write to logger with the script's message.
//
// Precondition: L must belong to a Sandbox.
func registerModules(L *lua.LState, logger *zap.Logger) {
	engine := L.NewTable()
	logTbl := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
	}
	for name, fn := range levels {
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			fn("lua: "+L.CheckString(1), zap.String("source", "score_script"))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)
	L.SetField(engine, "max_tier", lua.LNumber(item.MaxTier))
	L.SetGlobal("engine", engine)
}
