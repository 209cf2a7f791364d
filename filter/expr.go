package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/animecal/anilist"
	"github.com/s0up4200/animecal/cache"
	"github.com/s0up4200/animecal/calendar"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	funcs      map[string]any
	now        func() time.Time
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*ExprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *ExprCompiler) {
		if size > 0 {
			c.cache = cache.NewLRU[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *ExprCompiler) {
		maps.Copy(c.customFuncs, funcs)
	}
}

// WithClock overrides the current time seen by date helpers
func WithClock(now func() time.Time) ExprCompilerOption {
	return func(c *ExprCompiler) {
		if now != nil {
			c.now = now
		}
	}
}

// ExprCompiler implements Compiler for expr-based filters
type ExprCompiler struct {
	customFuncs map[string]any
	cache       *cache.LRU[CompiledFilter]
	now         func() time.Time
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) *ExprCompiler {
	c := &ExprCompiler{
		customFuncs: make(map[string]any),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile compiles an expression into an executable filter
func (c *ExprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// A zero media entry gives the checker the type of every variable and helper
	env := newEnvironment(anilist.Media{}, c.now)
	maps.Copy(env, c.customFuncs)

	options := append([]expr.Option{
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	}, stringFunctions...)

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		funcs:      c.customFuncs,
		now:        c.now,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *ExprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Evaluate evaluates the filter against a media entry. Entries that fail to
// evaluate do not match.
func (f *exprFilter) Evaluate(media anilist.Media) bool {
	ok, err := f.Match(media)
	return err == nil && ok
}

// Match evaluates the filter against a media entry
func (f *exprFilter) Match(media anilist.Media) (bool, error) {
	env := newEnvironment(media, f.now)
	maps.Copy(env, f.funcs)

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			MediaID:    media.ID,
			Err:        err,
		}
	}

	// Result is guaranteed to be bool due to AsBool() option during compilation
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// stringFunctions are case-insensitive variants of the contains, startsWith
// and endsWith operators
var stringFunctions = []expr.Option{
	expr.Function("containsFold", func(params ...any) (any, error) {
		return strings.Contains(strings.ToLower(params[0].(string)), strings.ToLower(params[1].(string))), nil
	}, new(func(string, string) bool)),
	expr.Function("hasPrefixFold", func(params ...any) (any, error) {
		return strings.HasPrefix(strings.ToLower(params[0].(string)), strings.ToLower(params[1].(string))), nil
	}, new(func(string, string) bool)),
	expr.Function("hasSuffixFold", func(params ...any) (any, error) {
		return strings.HasSuffix(strings.ToLower(params[0].(string)), strings.ToLower(params[1].(string))), nil
	}, new(func(string, string) bool)),
}

// newEnvironment creates the evaluation environment for one media entry
func newEnvironment(media anilist.Media, now func() time.Time) map[string]any {
	env := make(map[string]any, 32)

	// Date helpers
	env["now"] = now
	env["daysUntil"] = func(t time.Time) int {
		return int(t.Sub(now()).Hours() / 24)
	}
	env["daysFromNow"] = func(days int) time.Time {
		return now().AddDate(0, 0, days)
	}
	env["monthsFromNow"] = func(months int) time.Time {
		return now().AddDate(0, months, 0)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse("2006-01-02", dateStr)
		return t
	}

	// Media helpers
	release, hasRelease := calendar.ReleaseDate(media.StartDate)
	env["hasLink"] = createHasLinkFunc(media.ExternalLinks)
	env["hasTitle"] = func() bool { return media.NativeTitle() != "" }
	env["hasReleaseDate"] = func() bool { return hasRelease }
	env["releaseDate"] = func() time.Time { return release }

	// Direct media properties for convenience
	env["Media"] = media
	env["ID"] = media.ID
	env["Title"] = media.NativeTitle()
	env["SiteURL"] = media.SiteURL
	env["CoverImage"] = media.CoverURL()
	env["Year"] = derefInt(media.StartDate.Year)
	env["Month"] = derefInt(media.StartDate.Month)
	env["Day"] = derefInt(media.StartDate.Day)
	env["Links"] = linkURLs(media.ExternalLinks)

	return env
}

func createHasLinkFunc(links []anilist.ExternalLink) func(string) bool {
	return func(linkType string) bool {
		for _, l := range links {
			if strings.EqualFold(l.Type, linkType) {
				return true
			}
		}
		return false
	}
}

func linkURLs(links []anilist.ExternalLink) []string {
	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	return urls
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
