package pipeline

import (
	"github.com/google/uuid"
	"github.com/llir/llvm/ir"

	"github.com/funvibe/minicc/internal/ast"
	"github.com/funvibe/minicc/internal/diagnostics"
	"github.com/funvibe/minicc/internal/token"
)

// Processor is a single pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries one compilation unit through the stages. A fresh
// context is constructed per unit; nothing is shared across units.
type PipelineContext struct {
	UnitID     uuid.UUID
	FilePath   string
	SourceCode string

	TokenStream *token.Stream
	AstRoot     *ast.Program

	// Module is the emitted IR for the unit; nil until the emitter ran and
	// discarded on any error.
	Module *ir.Module
	// EntryName is set when top-level statements were collected into a
	// synthetic entry function.
	EntryName string

	Errors []*diagnostics.Diagnostic
}

func NewContext(filePath, source string) *PipelineContext {
	return &PipelineContext{
		UnitID:     uuid.New(),
		FilePath:   filePath,
		SourceCode: source,
	}
}

// HasErrors reports whether any stage recorded a diagnostic.
func (ctx *PipelineContext) HasErrors() bool {
	return len(ctx.Errors) > 0
}
