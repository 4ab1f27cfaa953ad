package lexer

import (
	"github.com/funvibe/minicc/internal/pipeline"
	"github.com/funvibe/minicc/internal/token"
)

// LexerProcessor turns the unit's source text into a token stream on the
// pipeline context.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	ctx.TokenStream = token.NewStream(New(ctx.SourceCode))
	return ctx
}
