// Package pipeline wires the compilation stages together. Each stage is a
// Processor transforming a shared PipelineContext; a unit is compiled by
// running all stages in order and inspecting the accumulated errors.
package pipeline

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Later stages bail out on their own when a
// previous stage has recorded errors.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
