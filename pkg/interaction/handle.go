package interaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/csrlink/csrlink-go/pkg/csrmap"
	"github.com/csrlink/csrlink-go/pkg/device"
	"github.com/csrlink/csrlink-go/pkg/register"
)

// Handle gives typed access to the registers of a device tree.
type Handle struct {
	root  *device.Node
	iface *Interface
	regs  map[string]*Register
	order []*Register
}

// Register is one attached register.
type Register struct {
	flat  device.Flat
	entry csrmap.Entry
	iface *Interface
}

// Attach binds the tree below root to iface. Every register that is not a
// RAM window must have an address table entry.
func Attach(root *device.Node, iface *Interface) (*Handle, error) {
	h := &Handle{
		root:  root,
		iface: iface,
		regs:  make(map[string]*Register),
	}

	var missing []error
	for _, f := range root.Flatten() {
		r := &Register{flat: f, iface: iface}
		if !f.Spec.InRAM() {
			e, err := iface.Map().Lookup(f.Key)
			if err != nil {
				missing = append(missing, err)
				continue
			}
			r.entry = e
		}
		h.regs[f.Path] = r
		h.order = append(h.order, r)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("attach %s: %w", root, errors.Join(missing...))
	}
	return h, nil
}

// Root returns the attached tree.
func (h *Handle) Root() *device.Node {
	return h.root
}

// Interface returns the underlying name-based interface.
func (h *Handle) Interface() *Interface {
	return h.iface
}

// Registers returns all attached registers in flattening order.
func (h *Handle) Registers() []*Register {
	return append([]*Register(nil), h.order...)
}

// Register resolves a dotted path such as "sub.child.reg".
func (h *Handle) Register(path string) (*Register, error) {
	if r, ok := h.regs[path]; ok {
		return r, nil
	}
	// Report the precise missing component.
	if _, err := h.root.Lookup(path); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", device.ErrUnknownPath, path)
}

// Get reads and decodes the register at path.
func (h *Handle) Get(ctx context.Context, path string) (any, error) {
	r, err := h.Register(path)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

// Set encodes and writes value to the register at path.
func (h *Handle) Set(ctx context.Context, path string, value any) error {
	r, err := h.Register(path)
	if err != nil {
		return err
	}
	return r.Set(ctx, value)
}

// Fire pulses the trigger at path.
func (h *Handle) Fire(ctx context.Context, path string) error {
	r, err := h.Register(path)
	if err != nil {
		return err
	}
	return r.Fire(ctx)
}

// GetArray reads all elements of the memory register at path.
func (h *Handle) GetArray(ctx context.Context, path string) ([]any, error) {
	r, err := h.Register(path)
	if err != nil {
		return nil, err
	}
	return r.GetArray(ctx)
}

// SetArray writes all elements of the memory register at path.
func (h *Handle) SetArray(ctx context.Context, path string, values []any) error {
	r, err := h.Register(path)
	if err != nil {
		return err
	}
	return r.SetArray(ctx, values)
}

// Path returns the dotted path below the root.
func (r *Register) Path() string { return r.flat.Path }

// Key returns the address table key.
func (r *Register) Key() string { return r.flat.Key }

// Spec returns the register declaration.
func (r *Register) Spec() register.Spec { return r.flat.Spec }

// Entry returns the address table entry. RAM windows have none.
func (r *Register) Entry() (csrmap.Entry, bool) {
	return r.entry, !r.flat.Spec.InRAM()
}

// Get reads the register. Memories yield []any.
func (r *Register) Get(ctx context.Context) (any, error) {
	spec := &r.flat.Spec
	if err := spec.CheckRead(); err != nil {
		return nil, err
	}
	if spec.IsArray() {
		return r.GetArray(ctx)
	}
	word, err := r.iface.Read(ctx, r.flat.Key)
	if err != nil {
		return nil, err
	}
	return spec.Decode(word)
}

// GetArray reads all elements in logical order. RAM windows fetch twice
// the depth and keep every second word.
func (r *Register) GetArray(ctx context.Context) ([]any, error) {
	spec := &r.flat.Spec
	if err := spec.CheckRead(); err != nil {
		return nil, err
	}
	if !spec.IsArray() {
		return nil, fmt.Errorf("%w: %s is not a memory", register.ErrInvalidOperation, r.flat.Path)
	}

	n := spec.Elements()
	var words []uint32
	if spec.InRAM() {
		raw, err := r.iface.ReadRAM(ctx, *spec.RAMOffset, 2*n)
		if err != nil {
			return nil, err
		}
		words = make([]uint32, 0, n)
		for i := 0; i < len(raw); i += 2 {
			words = append(words, raw[i])
		}
	} else {
		var err error
		words, err = r.iface.ReadArray(ctx, r.flat.Key, n)
		if err != nil {
			return nil, err
		}
	}
	return spec.DecodeArray(words)
}

// Set writes value. Memories take a []any of exactly Depth elements;
// triggers ignore the value and fire.
func (r *Register) Set(ctx context.Context, value any) error {
	spec := &r.flat.Spec
	if err := spec.CheckWrite(); err != nil {
		return err
	}
	if spec.Kind == register.KindTrigger {
		return r.Fire(ctx)
	}
	if spec.IsArray() {
		values, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%w: %s expects %d values, got %T", register.ErrInvalidValue, r.flat.Path, spec.Elements(), value)
		}
		return r.SetArray(ctx, values)
	}

	res, err := spec.Encode(value)
	if err != nil {
		return err
	}
	saturated := 0
	if res.Saturated() {
		saturated = 1
		r.iface.logger.Warn("register value saturated",
			"register", r.flat.Key,
			"value", value,
			"word", res.Word,
			"soft", res.SoftSaturated,
			"hard", res.HardSaturated)
	}
	return r.put(ctx, []uint32{res.Word}, saturated)
}

// SetArray writes all elements in logical order.
func (r *Register) SetArray(ctx context.Context, values []any) error {
	spec := &r.flat.Spec
	if err := spec.CheckWrite(); err != nil {
		return err
	}
	if !spec.IsArray() {
		return fmt.Errorf("%w: %s is not a memory", register.ErrInvalidOperation, r.flat.Path)
	}
	results, err := spec.EncodeArray(values)
	if err != nil {
		return err
	}
	saturated := register.CountSaturated(results)
	if saturated > 0 {
		r.iface.logger.Warn("register values saturated",
			"register", r.flat.Key,
			"count", saturated,
			"depth", len(results))
	}
	if err := checkLength(r.flat.Key, len(results)); err != nil {
		return err
	}
	return r.put(ctx, register.Words(results), saturated)
}

// Fire pulses a trigger register.
func (r *Register) Fire(ctx context.Context) error {
	spec := &r.flat.Spec
	if spec.Kind != register.KindTrigger {
		return fmt.Errorf("%w: %s is not a trigger", register.ErrInvalidOperation, r.flat.Path)
	}
	return r.put(ctx, []uint32{0}, 0)
}

func (r *Register) put(ctx context.Context, words []uint32, saturated int) error {
	if !r.entry.Writable() {
		return fmt.Errorf("%w: %s is mapped read-only", register.ErrPermission, r.flat.Key)
	}
	return r.iface.write(ctx, r.entry, words, saturated)
}
