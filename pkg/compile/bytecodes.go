package compile

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/compile-bytecodes/pkg/batch"
	"github.com/Sternrassler/compile-bytecodes/pkg/logging"
	"github.com/oklog/ulid/v2"
)

// Loader executes the "bytecodes" request.
type Loader = batch.Loader[*BytecodeInput, IDObject]

// BytecodesBatch is the flattened form of a set of compilations.
type BytecodesBatch struct {
	structured []Compilation
	batch      *batch.Batch[*BytecodeInput, Breadcrumb]
}

// PrepareBytecodesBatch flattens the bytecodes of every contract in
// compilations into one batch. Values are not filtered or validated.
func PrepareBytecodesBatch(compilations []Compilation) *BytecodesBatch {
	b := batch.New[*BytecodeInput, Breadcrumb]()

	for compilationIndex := range compilations {
		contracts := compilations[compilationIndex].Contracts
		for contractIndex := range contracts {
			for _, field := range bytecodeFields {
				b.Push(field.input(&contracts[contractIndex]), Breadcrumb{
					CompilationIndex: compilationIndex,
					ContractIndex:    contractIndex,
					Field:            field,
				})
			}
		}
	}

	return &BytecodesBatch{
		structured: compilations,
		batch:      b,
	}
}

// Inputs returns the flat batch in request order.
func (b *BytecodesBatch) Inputs() []*BytecodeInput {
	return b.batch.Inputs
}

// Len returns the number of batch entries.
func (b *BytecodesBatch) Len() int {
	return b.batch.Len()
}

// Breadcrumb returns the origin of batch entry i.
func (b *BytecodesBatch) Breadcrumb(i int) (Breadcrumb, bool) {
	crumb, ok := b.batch.Breadcrumbs[i]
	return crumb, ok
}

// Unbatch rebuilds the compilations with results attached to each
// contract's db record. results must be in batch order and have exactly
// Len() entries; otherwise *batch.LengthMismatchError is returned.
func (b *BytecodesBatch) Unbatch(results []IDObject) ([]Compilation, error) {
	// Materialized on first reference, keyed by input index.
	compilations := make(map[int]*Compilation)
	contracts := make(map[int]map[int]*Contract)

	err := batch.Scatter(b.batch, results, func(crumb Breadcrumb, result IDObject) error {
		if crumb.CompilationIndex < 0 || crumb.CompilationIndex >= len(b.structured) {
			return fmt.Errorf("%w: compilation index %d out of range", batch.ErrMissingBreadcrumb, crumb.CompilationIndex)
		}
		source := &b.structured[crumb.CompilationIndex]
		if crumb.ContractIndex < 0 || crumb.ContractIndex >= len(source.Contracts) {
			return fmt.Errorf("%w: contract index %d out of range", batch.ErrMissingBreadcrumb, crumb.ContractIndex)
		}

		if _, ok := compilations[crumb.CompilationIndex]; !ok {
			compilations[crumb.CompilationIndex] = shallowCompilation(source)
			contracts[crumb.CompilationIndex] = make(map[int]*Contract)
		}

		contract, ok := contracts[crumb.CompilationIndex][crumb.ContractIndex]
		if !ok {
			c := source.Contracts[crumb.ContractIndex]
			c.DB = c.DB.Merge(nil)
			contract = &c
			contracts[crumb.CompilationIndex][crumb.ContractIndex] = contract
		}

		contract.DB[crumb.Field.DBKey()] = result
		return nil
	})
	if err != nil {
		unbatchErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}

	out := make([]Compilation, len(b.structured))
	for i := range b.structured {
		compilation, ok := compilations[i]
		if !ok {
			// Only compilations without contracts are never referenced.
			compilation = shallowCompilation(&b.structured[i])
		}

		compilation.Contracts = make([]Contract, len(b.structured[i].Contracts))
		for j := range compilation.Contracts {
			contract, ok := contracts[i][j]
			if !ok {
				unbatchErrorsTotal.WithLabelValues("missing_breadcrumb").Inc()
				return nil, fmt.Errorf("%w: compilation %d contract %d never referenced",
					batch.ErrMissingBreadcrumb, i, j)
			}
			compilation.Contracts[j] = *contract
		}

		out[i] = *compilation
	}

	return out, nil
}

// shallowCompilation copies every field of c except its contracts.
func shallowCompilation(c *Compilation) *Compilation {
	out := *c
	out.Contracts = []Contract{}
	return &out
}

// LoadBytecodes submits the bytecodes of every contract in compilations to
// loader as a single "bytecodes" request and returns the compilations with
// db.createBytecode and db.callBytecode set on each contract.
//
// The input is not modified. If loader fails or ctx is cancelled before it
// returns, no output is produced.
func LoadBytecodes(ctx context.Context, loader Loader, compilations []Compilation) ([]Compilation, error) {
	batchID := ulid.Make().String()
	logger := logging.FromContext(ctx).With().
		Str("component", "compile").
		Str("batch_id", batchID).
		Str("kind", ResourceBytecodes).
		Logger()

	start := time.Now()
	prepared := PrepareBytecodesBatch(compilations)

	logger.Debug().
		Int("compilations", len(compilations)).
		Int("batch_size", prepared.Len()).
		Msg("Loading bytecodes batch")
	batchSize.WithLabelValues(ResourceBytecodes).Observe(float64(prepared.Len()))

	results, err := batch.Load[*BytecodeInput, Breadcrumb, IDObject](ctx, loader, ResourceBytecodes, prepared.batch)
	if err != nil {
		batchesTotal.WithLabelValues(ResourceBytecodes, "load_error").Inc()
		logger.Warn().Err(err).Int("batch_size", prepared.Len()).Msg("Bytecodes batch load failed")
		return nil, err
	}

	out, err := prepared.Unbatch(results)
	if err != nil {
		batchesTotal.WithLabelValues(ResourceBytecodes, "unbatch_error").Inc()
		logger.Error().Err(err).Msg("Bytecodes unbatch failed")
		return nil, fmt.Errorf("unbatch %s: %w", ResourceBytecodes, err)
	}

	batchesTotal.WithLabelValues(ResourceBytecodes, "ok").Inc()
	batchDuration.WithLabelValues(ResourceBytecodes).Observe(time.Since(start).Seconds())
	logger.Debug().
		Int("batch_size", prepared.Len()).
		Dur("duration", time.Since(start)).
		Msg("Bytecodes batch loaded")

	return out, nil
}
