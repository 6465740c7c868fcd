package services

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/ports"
)

// ConstructFunc builds one instance of a candidate with the selected constructor.
type ConstructFunc func(ctx context.Context, candidate *entities.Candidate, ctor entities.Constructor, args []any) (any, error)

// Middleware is a function that wraps a ConstructFunc to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next ConstructFunc) ConstructFunc

// CatalogPolicy decides what happens when associating a message bundle with
// a freshly built instance fails.
type CatalogPolicy int

const (
	// CatalogSwallowNoBundle ignores a missing bundle and propagates every other failure.
	CatalogSwallowNoBundle CatalogPolicy = iota
	// CatalogIgnoreAll ignores every failure.
	CatalogIgnoreAll
	// CatalogPropagateAll propagates every failure, a missing bundle included.
	CatalogPropagateAll
)

// String returns the configuration name of the policy.
func (p CatalogPolicy) String() string {
	switch p {
	case CatalogSwallowNoBundle:
		return "swallow-no-bundle"
	case CatalogIgnoreAll:
		return "ignore-all"
	case CatalogPropagateAll:
		return "propagate-all"
	default:
		return fmt.Sprintf("CatalogPolicy(%d)", int(p))
	}
}

// ParseCatalogPolicy parses a configuration name. An empty string selects
// the default policy.
func ParseCatalogPolicy(s string) (CatalogPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "swallow-no-bundle":
		return CatalogSwallowNoBundle, nil
	case "ignore-all":
		return CatalogIgnoreAll, nil
	case "propagate-all":
		return CatalogPropagateAll, nil
	default:
		return 0, fmt.Errorf("unknown catalog policy %q", s)
	}
}

// Builder turns candidate types into instances.
type Builder struct {
	catalog    ports.Catalog
	logger     *slog.Logger
	middleware []Middleware
	priority   int
	policy     CatalogPolicy
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCatalog sets the catalog that receives every built instance.
func WithCatalog(catalog ports.Catalog) BuilderOption {
	return func(b *Builder) {
		b.catalog = catalog
	}
}

// WithCatalogPolicy sets the catalog failure policy.
func WithCatalogPolicy(policy CatalogPolicy) BuilderOption {
	return func(b *Builder) {
		b.policy = policy
	}
}

// WithCatalogPriority sets the priority passed to the catalog.
func WithCatalogPriority(priority int) BuilderOption {
	return func(b *Builder) {
		b.priority = priority
	}
}

// WithMiddleware appends construction middleware.
func WithMiddleware(mw ...Middleware) BuilderOption {
	return func(b *Builder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates an instance builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Construct builds one instance of the candidate from args.
// Every construction failure is reported as entities.ErrBadConstructor.
func (b *Builder) Construct(ctx context.Context, candidate *entities.Candidate, args []any) (any, error) {
	if candidate == nil {
		return nil, entities.NewError(entities.KindBadConstructor, "", "candidate is nil", nil)
	}
	name := candidate.Name().String()

	if candidate.IsAbstract() {
		return nil, entities.NewError(entities.KindBadConstructor, "", "abstract implementation cannot be built", nil).
			WithImplementation(name)
	}

	ctor, ok := SelectConstructor(candidate, args)
	if !ok {
		msg := fmt.Sprintf("no constructor accepts %s", describeArgs(args))
		return nil, entities.NewError(entities.KindBadConstructor, "", msg, nil).WithImplementation(name)
	}

	instance, err := b.chain()(ctx, candidate, ctor, args)
	if err != nil {
		return nil, entities.NewError(entities.KindBadConstructor, "", "construction failed", err).WithImplementation(name)
	}
	if isNil(instance) {
		return nil, entities.NewError(entities.KindBadConstructor, "", "constructor returned nil", nil).WithImplementation(name)
	}

	if err := b.associate(instance, name); err != nil {
		return nil, err
	}
	return instance, nil
}

// SelectConstructor picks the constructor for args. Among constructors
// accepting args, one that is more specific than the current best replaces
// it; ties keep the earlier declared constructor.
func SelectConstructor(candidate *entities.Candidate, args []any) (entities.Constructor, bool) {
	var best entities.Constructor
	found := false
	for _, ctor := range candidate.Constructors() {
		if !ctor.Accepts(args) {
			continue
		}
		if !found || ctor.MoreSpecificThan(best) {
			best = ctor
			found = true
		}
	}
	return best, found
}

func (b *Builder) chain() ConstructFunc {
	fn := PanicRecoveryMiddleware()(invoke)
	for i := len(b.middleware) - 1; i >= 0; i-- {
		fn = b.middleware[i](fn)
	}
	return fn
}

func (b *Builder) associate(instance any, name string) error {
	if b.catalog == nil {
		return nil
	}
	_, err := b.catalog.AddAssociatedBundle(instance, b.priority)
	if err == nil {
		return nil
	}

	switch b.policy {
	case CatalogIgnoreAll:
		b.logger.Debug("ignoring catalog failure", "implementation", name, "error", err)
		return nil
	case CatalogPropagateAll:
		return entities.AsExtensionError("", "catalog association failed", err)
	default:
		if entities.KindOf(err) == entities.KindNoBundle {
			b.logger.Debug("no message bundle", "implementation", name)
			return nil
		}
		return entities.AsExtensionError("", "catalog association failed", err)
	}
}

// PanicRecoveryMiddleware returns a middleware that converts a constructor
// panic into an error.
func PanicRecoveryMiddleware() Middleware {
	return func(next ConstructFunc) ConstructFunc {
		return func(ctx context.Context, candidate *entities.Candidate, ctor entities.Constructor, args []any) (instance any, err error) {
			defer func() {
				if r := recover(); r != nil {
					instance = nil
					err = fmt.Errorf("constructor panicked: %v", r)
				}
			}()
			return next(ctx, candidate, ctor, args)
		}
	}
}

func invoke(_ context.Context, _ *entities.Candidate, ctor entities.Constructor, args []any) (any, error) {
	return ctor.Invoke(args)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func describeArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			parts[i] = "nil"
			continue
		}
		parts[i] = reflect.TypeOf(a).String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
