package output

import (
	"context"
	"fmt"
	"runtime"

	"github.com/micmonay/keybd_event"
)

// KeyPaster dispatches a synthetic paste key combination (cmd+V on macOS,
// ctrl+V elsewhere) to whatever application holds input focus. Whether the
// paste landed is not verified.
type KeyPaster struct{}

func NewKeyPaster() *KeyPaster {
	return &KeyPaster{}
}

func (p *KeyPaster) Paste(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("failed to prepare key event: %w", err)
	}

	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}

	if err := kb.Launching(); err != nil {
		return fmt.Errorf("failed to dispatch paste keystroke: %w", err)
	}
	return nil
}
