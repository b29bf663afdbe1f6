// Package interaction binds a device tree, its address map and a bus into
// the application-facing register API.
//
// Construction has two phases. device.Build assembles the structure, then
// Attach binds it to a live Interface:
//
//	m, _ := csrmap.Load("result/csr.csv")
//	client, _ := transport.Dial(ctx, transport.DefaultConfig("rp-f0a1b2.local"))
//	iface := interaction.New(client, m, interaction.Options{})
//	defer iface.Stop()
//
//	root, _ := device.Build(manifest)
//	h, _ := interaction.Attach(root, iface)
//
//	_ = h.Set(ctx, "pulsegen.frequency", 1250)
//	v, _ := h.Get(ctx, "counter.value")
//	_ = h.Fire(ctx, "counter.reset")
//
// # Errors
//
// Unknown names fail with csrmap.ErrUnknownRegister or device.ErrUnknownPath
// before any bus traffic. Writes to read-only registers fail with
// register.ErrPermission, reading a trigger with register.ErrInvalidOperation.
// Out-of-range scalars are clamped and logged, never rejected. Array writes
// of the wrong length fail with register.ErrInvalidValue.
package interaction
