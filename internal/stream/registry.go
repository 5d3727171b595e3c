package stream

import "fmt"

// DecodeFunc reads one element body, the leading tag having already been
// consumed by the container.
type DecodeFunc func(c *Codec, r *reader) (any, error)

// Registry maps stream tags to decoders. It is a plain value handed to the
// codec at construction rather than shared process-wide state, so two runs
// with different catalogs never interfere. NewRegistry preloads the
// built-in element types; callers may register further tags above the
// built-in range.
type Registry struct {
	decoders map[Tag]DecodeFunc
}

func NewRegistry() *Registry {
	reg := &Registry{decoders: make(map[Tag]DecodeFunc)}
	reg.decoders[TagNode] = decodeNodeElem
	reg.decoders[TagNodeSet] = decodeNodeSetElem
	reg.decoders[TagGene] = decodeGeneElem
	reg.decoders[TagIndividual] = decodeIndividualElem
	return reg
}

// Register adds a decoder for a tag. Nil and already-registered tags are
// rejected.
func (reg *Registry) Register(t Tag, fn DecodeFunc) error {
	if t == TagNil {
		return fmt.Errorf("cannot register the nil tag")
	}
	if fn == nil {
		return fmt.Errorf("nil decoder for tag %d", t)
	}
	if _, ok := reg.decoders[t]; ok {
		return fmt.Errorf("tag %d already registered", t)
	}
	reg.decoders[t] = fn
	return nil
}

func (reg *Registry) decode(c *Codec, r *reader, t Tag) (any, error) {
	fn, ok := reg.decoders[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, t)
	}
	return fn(c, r)
}
