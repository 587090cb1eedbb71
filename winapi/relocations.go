package winapi

import "w32run/pe"

// applyRelocations rewrites every absolute address the base relocation
// table names by delta = actualBase - preferredBase. The loader always
// honors a PE32 image's preferred ImageBase (nothing else in this flat
// 1 GiB guest address space competes for it), so delta is 0 and this is
// a no-op in practice; it exists so a future multi-image loader (or a
// binary whose preferred base collides with the trampoline/TEB/heap
// regions) has a correct relocator to fall back on, per spec.md §4.1.
func (e *Emulator) applyRelocations(delta uint32) error {
	if delta == 0 {
		return nil
	}
	for _, reloc := range e.Image.Relocations {
		pageRVA := reloc.Data.VirtualAddress
		for _, entry := range reloc.Entries {
			if entry.Type != pe.ImageRelBasedHighLow {
				continue // ABSOLUTE padding entries and non-x86 types are no-ops here
			}
			addr := e.ImageBase + pageRVA + uint32(entry.Offset)
			v, err := e.Mem.Read32(addr)
			if err != nil {
				return err
			}
			if err := e.Mem.Write32(addr, v+delta); err != nil {
				return err
			}
		}
	}
	return nil
}
