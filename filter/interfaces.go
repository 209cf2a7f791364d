package filter

import (
	"context"

	"github.com/s0up4200/animecal/anilist"
)

// Filter defines the basic interface for media filters
type Filter interface {
	// Evaluate checks if a media entry matches the filter criteria
	Evaluate(media anilist.Media) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Match evaluates the filter and reports evaluation failures
	Match(media anilist.Media) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// Evaluator applies a filter to a media listing
type Evaluator interface {
	// Evaluate returns the matching media in their original order
	Evaluate(ctx context.Context, filter CompiledFilter, media []anilist.Media) ([]anilist.Media, error)
}
