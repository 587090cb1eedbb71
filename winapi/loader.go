package winapi

import (
	"fmt"
	"path/filepath"

	"w32run/cpu"
	"w32run/pe"
)

// LoadImage parses the configured executable, maps its sections into
// guest memory, resolves every imported function to a trampoline, and
// leaves the CPU positioned at the entry point with a fresh stack. This
// plays the role the teacher's pe.File.Parse plays for static analysis,
// pushed one step further into an actual loader the way a real Windows
// loader continues past LoadLibrary's parse-only step.
func (e *Emulator) LoadImage() error {
	img, err := pe.New(e.Cfg.ExePath, &pe.Options{})
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if err := img.Parse(); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	e.Image = img
	for _, anomaly := range img.Anomalies {
		e.Log.Warnf("image anomaly: %s", anomaly)
	}
	if overlay, err := img.Overlay(); err == nil && len(overlay) > 0 {
		e.Log.Debugf("image carries %d bytes of trailing overlay data, not mapped into guest memory", len(overlay))
	}

	if uint16(img.NtHeader.FileHeader.Machine) != pe.ImageFileMachineI386 {
		return fmt.Errorf("unsupported machine type 0x%04X: only I386 32-bit images are emulated", img.NtHeader.FileHeader.Machine)
	}
	oh, ok := img.NtHeader.OptionalHeader.(pe.ImageOptionalHeader32)
	if !ok {
		return fmt.Errorf("image is not a PE32 (32-bit) executable")
	}

	e.ImageBase = oh.ImageBase
	if err := e.mapSections(oh); err != nil {
		return err
	}
	if err := e.applyRelocations(0); err != nil {
		return err
	}
	if err := e.resolveImports(oh); err != nil {
		return err
	}
	if err := e.installCRTPatches(); err != nil {
		return err
	}
	if err := e.buildArgvBlock(); err != nil {
		return err
	}

	stackTop, err := e.setupStack()
	if err != nil {
		return err
	}
	if err := e.setupTEBPEB(stackTop); err != nil {
		return err
	}

	e.CPU.EIP = e.ImageBase + oh.AddressOfEntryPoint
	e.CPU.Regs[cpu.ESP] = stackTop
	e.CPU.FSBase = e.tebAddr
	e.CPU.GSBase = e.tebAddr
	e.CPU.State = cpu.Running
	e.Log.Infof("loaded %s: base=0x%08X entry=0x%08X", filepath.Base(e.Cfg.ExePath), e.ImageBase, e.CPU.EIP)
	return nil
}

// mapSections copies each section's raw bytes to ImageBase+VirtualAddress
// and zero-pads the remainder up to VirtualSize, mirroring what the
// Windows loader does for SEC_IMAGE mappings (spec.md §4.1).
func (e *Emulator) mapSections(oh pe.ImageOptionalHeader32) error {
	for i := range e.Image.Sections {
		sec := &e.Image.Sections[i]
		addr := e.ImageBase + sec.Header.VirtualAddress
		vsize := pe.Max(sec.Header.VirtualSize, sec.Header.SizeOfRawData)
		if vsize == 0 {
			continue
		}
		raw := sec.Data(0, sec.Header.SizeOfRawData, e.Image)
		if len(raw) > 0 {
			if err := e.Mem.Load(addr, raw); err != nil {
				return fmt.Errorf("map section %s: %w", sectionName(sec.Header.Name), err)
			}
		}
		if vsize > uint32(len(raw)) {
			if err := e.Mem.Fill(addr+uint32(len(raw)), 0, vsize-uint32(len(raw))); err != nil {
				return fmt.Errorf("zero-pad section %s: %w", sectionName(sec.Header.Name), err)
			}
		}
	}
	return nil
}

func sectionName(raw [8]uint8) string {
	n := 0
	for n < 8 && raw[n] != 0 {
		n++
	}
	return string(raw[:n])
}

// resolveImports installs a trampoline for every imported function and
// patches its IAT slot to point at the trampoline address, the
// emulator's substitute for the loader's normal GetProcAddress walk
// (spec.md §4.4.1).
func (e *Emulator) resolveImports(oh pe.ImageOptionalHeader32) error {
	catalog := buildCatalog()
	for _, imp := range e.Image.Imports {
		dll := dllKey(imp.Name)
		for _, fn := range imp.Functions {
			name := fn.Name
			h, ok := lookupHandler(catalog, dll, name, fn.Ordinal, fn.ByOrdinal)
			if !ok {
				h = e.unresolvedImportHandler(dll, name)
			}
			addr, err := e.installStub(dll, name, uint16(fn.Ordinal), h)
			if err != nil {
				return err
			}
			if fn.ThunkRVA == 0 {
				continue
			}
			if err := e.Mem.Write32(e.ImageBase+fn.ThunkRVA, addr); err != nil {
				return fmt.Errorf("patch IAT for %s!%s: %w", dll, name, err)
			}
		}
	}
	return nil
}

// unresolvedImportHandler is installed for any import the catalog does
// not cover. It logs once and returns a benign zero/success value
// rather than faulting, since many imports (telemetry, optional
// feature probes) are never actually exercised by a given run.
func (e *Emulator) unresolvedImportHandler(dll, name string) Handler {
	warned := false
	return func(em *Emulator) error {
		if !warned {
			em.Log.Warnf("unresolved import %s!%s called, returning 0", dll, name)
			warned = true
		}
		em.Return(0)
		return em.StdcallReturn(0)
	}
}

// installCRTPatches short-circuits the small set of CRT internals
// spec.md §4.4.4 calls out by address rather than by import name: the
// small-block heap initializer and allocator, and _CrtDbgReport. Zero
// in Cfg.Patches means "not configured for this binary", so the patch
// is skipped.
func (e *Emulator) installCRTPatches() error {
	if a := e.Cfg.Patches.SBHHeapInit; a != 0 {
		if err := e.installPatch(e.ImageBase+a, handlerSBHHeapInit); err != nil {
			return err
		}
	}
	if a := e.Cfg.Patches.SBHAllocBlock; a != 0 {
		if err := e.installPatch(e.ImageBase+a, handlerSBHAllocBlock); err != nil {
			return err
		}
	}
	if a := e.Cfg.Patches.CrtDbgReport; a != 0 {
		if err := e.installPatch(e.ImageBase+a, handlerCrtDbgReportStub); err != nil {
			return err
		}
	}
	return nil
}
