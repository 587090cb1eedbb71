package winapi

// catalogEntry pairs a handler with the fixed argument count the
// trampoline's caller pushed, so every entry can self-describe its own
// stdcall cleanup instead of each handler repeating StdcallReturn(n).
type catalogEntry struct {
	argc    int
	cdecl   bool
	handler func(e *Emulator) error
}

// catalog is {dll -> {funcName -> entry}}, built once per run and
// consulted by resolveImports for every import table entry.
type catalog map[string]map[string]catalogEntry

func (c catalog) add(dll, name string, argc int, h func(e *Emulator) error) {
	dll = dllKey(dll)
	m, ok := c[dll]
	if !ok {
		m = make(map[string]catalogEntry)
		c[dll] = m
	}
	m[name] = catalogEntry{argc: argc, handler: h}
}

func (c catalog) addCdecl(dll, name string, argc int, h func(e *Emulator) error) {
	dll = dllKey(dll)
	m, ok := c[dll]
	if !ok {
		m = make(map[string]catalogEntry)
		c[dll] = m
	}
	m[name] = catalogEntry{argc: argc, cdecl: true, handler: h}
}

// wrap turns a catalogEntry into the Handler signature installStub
// wants: run the implementation, then apply the right calling
// convention cleanup unless the handler already tore down the stack
// itself (e.g. by jumping, which none of these do).
func wrap(ce catalogEntry) Handler {
	return func(e *Emulator) error {
		if err := ce.handler(e); err != nil {
			return err
		}
		if ce.cdecl {
			return e.CdeclReturn(ce.argc)
		}
		return e.StdcallReturn(ce.argc)
	}
}

// lookupHandler resolves dll!name (or dll!#ordinal) against the
// catalog and returns a ready-to-install Handler.
func lookupHandler(cat catalog, dll, name string, ordinal uint32, byOrdinal bool) (Handler, bool) {
	m, ok := cat[dllKey(dll)]
	if !ok {
		return nil, false
	}
	if !byOrdinal {
		if ce, ok := m[name]; ok {
			return wrap(ce), true
		}
		return nil, false
	}
	// Ordinal-only imports are rare in the target corpus (spec.md §9);
	// fall back to name lookup keyed by a synthetic "#N" entry that a
	// catalog group can register when it knows a DLL's fixed ordinals.
	if ce, ok := m[ordinalKey(ordinal)]; ok {
		return wrap(ce), true
	}
	return nil, false
}

func ordinalKey(ordinal uint32) string {
	return "#" + itoa(ordinal)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// buildCatalog assembles the full dll!func -> handler table from every
// behavior group in spec.md §4.4.4.
func buildCatalog() catalog {
	c := make(catalog)
	registerProcessHandlers(c)
	registerHeapHandlers(c)
	registerSyncHandlers(c)
	registerThreadHandlers(c)
	registerTLSHandlers(c)
	registerLocaleHandlers(c)
	registerTimeHandlers(c)
	registerFileHandlers(c)
	registerRegistryHandlers(c)
	registerStringHandlers(c)
	registerErrorHandlers(c)
	registerDialogHandlers(c)
	registerOLEHandlers(c)
	registerCOMHandlers(c)
	registerCRTHandlers(c)
	return c
}
