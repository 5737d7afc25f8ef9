// Package compiler orchestrates the four-stage pipeline: parse ->
// type-check -> name-locate -> emit, strictly in that order, each stage
// consuming the previous stage's annotation maps. Stages execute
// synchronously with no recovery; the first diagnostic stops the pipeline.
//
// Compile follows a "one function, sequential stage calls, first error
// wins" shape, and logs each stage transition (see DESIGN.md).
package compiler

import (
	"fmt"

	"go.uber.org/zap"

	"cygnic/src/bytecode"
	"cygnic/src/diag"
	"cygnic/src/emit"
	"cygnic/src/frontend"
	"cygnic/src/namelocate"
	"cygnic/src/typecheck"
)

// Options is the compiler's one configuration surface: everything the CLI
// can set, and nothing else, because the language has no cross-file
// modules, imports or separate compilation to configure beyond this.
type Options struct {
	InputPath  string
	OutputPath string
	Source     string
	Log        *zap.SugaredLogger
}

// Result is the compiler's output: the finished Program plus the global
// variable count the container writer needs to size the global table.
type Result struct {
	Program       *bytecode.Program
	GlobalCount   int
	FunctionCount int
}

func (o *Options) logger() *zap.SugaredLogger {
	if o.Log != nil {
		return o.Log
	}
	return zap.NewNop().Sugar()
}

// Compile runs the full pipeline over opt.Source and returns the finished
// Program, or the first diagnostic raised by any stage.
func Compile(opt Options) (*Result, error) {
	log := opt.logger()

	log.Infow("stage: parse", "input", opt.InputPath)
	root, err := frontend.Parse(opt.InputPath, opt.Source)
	if err != nil {
		log.Errorw("parse failed", diag.Fields(err)...)
		return nil, fmt.Errorf("parse: %w", err)
	}

	log.Infow("stage: type-check")
	types, err := typecheck.Check(root)
	if err != nil {
		log.Errorw("type-check failed", diag.Fields(err)...)
		return nil, fmt.Errorf("type-check: %w", err)
	}

	log.Infow("stage: name-locate")
	names, counts, err := namelocate.Locate(root)
	if err != nil {
		log.Errorw("name-locate failed", diag.Fields(err)...)
		return nil, fmt.Errorf("name-locate: %w", err)
	}
	log.Debugw("name-locate counts",
		"globals", counts.GlobalVariables,
		"functions", counts.Functions,
		"natives", counts.NativeFunctions)

	log.Infow("stage: emit")
	prog, err := emit.Emit(root, types, names)
	if err != nil {
		log.Errorw("emit failed", diag.Fields(err)...)
		return nil, fmt.Errorf("emit: %w", err)
	}
	for _, lib := range prog.Libraries {
		log.Debugw("registered native library", "library", lib)
	}

	return &Result{Program: prog, GlobalCount: counts.GlobalVariables, FunctionCount: counts.Functions}, nil
}

// WriteArtifact serializes r.Program into the on-disk container format
// (bytecode.Write; see bytecode/serialize.go).
func WriteArtifact(r *Result) []byte {
	return bytecode.Write(r.Program, r.GlobalCount)
}
