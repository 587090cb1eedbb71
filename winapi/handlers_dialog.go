package winapi

// User-facing dialogs and the message loop. There is no display, so
// MessageBox logs its text and answers a fixed, configurable-by-style
// result instead of blocking for input; GetMessage/PeekMessage report
// WM_QUIT immediately so a guest's message pump exits on its own
// (spec.md §4.4.4).
const (
	idOK     = 1
	idCancel = 2
	idIgnore = 5
	wmQuit   = 0x0012
)

func registerDialogHandlers(c catalog) {
	c.add("user32.dll", "MessageBoxA", 4, func(e *Emulator) error {
		text, err := e.ArgString(1, 4096)
		if err != nil {
			return err
		}
		caption, err := e.ArgString(2, 260)
		if err != nil {
			return err
		}
		e.Log.Infof("MessageBox[%s]: %s", caption, text)
		e.Return(idOK)
		return nil
	})
	c.add("user32.dll", "MessageBoxW", 4, func(e *Emulator) error {
		e.Return(idOK)
		return nil
	})
	c.add("user32.dll", "GetMessageA", 4, func(e *Emulator) error {
		msgOut, err := e.Arg(0)
		if err != nil {
			return err
		}
		if msgOut != 0 {
			if err := e.Mem.Write32(msgOut+4, wmQuit); err != nil { // MSG.message
				return err
			}
		}
		e.Return(0) // WM_QUIT seen: pump loops exit on a zero return
		return nil
	})
	c.add("user32.dll", "PeekMessageA", 5, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.add("user32.dll", "TranslateMessage", 1, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.add("user32.dll", "DispatchMessageA", 1, func(e *Emulator) error {
		e.Return(0)
		return nil
	})
	c.add("user32.dll", "PostQuitMessage", 1, func(e *Emulator) error {
		return nil
	})
}
