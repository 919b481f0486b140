package script

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// installConsole defines a console global whose methods write to logger.
func installConsole(vm *goja.Runtime, logger *zap.Logger) error {
	console := vm.NewObject()
	levels := map[string]zapcore.Level{
		"log":   zapcore.InfoLevel,
		"info":  zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for name, level := range levels {
		if err := console.Set(name, consoleFunc(logger, level)); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

func consoleFunc(logger *zap.Logger, level zapcore.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		if ce := logger.Check(level, strings.Join(parts, " ")); ce != nil {
			ce.Write()
		}
		return goja.Undefined()
	}
}
