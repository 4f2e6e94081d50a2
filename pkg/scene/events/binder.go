package events

import "reflect"

// Processor handles contexts. Contexts are passed as pointers so handlers can
// fill them in.
type Processor interface {
	Process(ctx any) ProcessingResult
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx any) ProcessingResult

// Process implements Processor.
func (f ProcessorFunc) Process(ctx any) ProcessingResult {
	return f(ctx)
}

type binding struct {
	contextType reflect.Type
	handler     func(ctx any) ProcessingResult
}

// Binder routes contexts to handlers by their exact dynamic type, in the
// order the handlers were bound. Embed it in an exporter and bind handlers in
// the constructor.
type Binder struct {
	bindings []binding
}

// Bind registers handler for contexts of type T. T is usually a pointer to a
// context struct.
func Bind[T any](b *Binder, handler func(ctx T) ProcessingResult) {
	b.bindings = append(b.bindings, binding{
		contextType: reflect.TypeFor[T](),
		handler: func(ctx any) ProcessingResult {
			return handler(ctx.(T))
		},
	})
}

// Process calls every handler bound to the dynamic type of ctx once and
// combines their results. Contexts without handlers are Ignored.
func (b *Binder) Process(ctx any) ProcessingResult {
	contextType := reflect.TypeOf(ctx)
	var result Combiner
	for _, bound := range b.bindings {
		if bound.contextType == contextType {
			result.Add(bound.handler(ctx))
		}
	}
	return result.Result()
}

// BindingCount returns the number of registered handlers.
func (b *Binder) BindingCount() int {
	return len(b.bindings)
}
