// internal/poller/discover.go
package poller

import (
	"fmt"
	"strings"
	"time"

	"github.com/minemo/huion-solar-getter/internal/catalog"
	"github.com/minemo/huion-solar-getter/internal/decode"
	"github.com/minemo/huion-solar-getter/internal/signal"
	"github.com/minemo/huion-solar-getter/internal/status"
)

// ReadModel reads the model identity string, trimmed of NUL padding.
func ReadModel(c Client) (string, error) {
	g := signal.NewGroup("identity", string(catalog.CategoryGeneral), []signal.Schema{catalog.ModelIdentity})

	b, err := ReadBlock(c, g, time.Now)
	if err != nil {
		return "", err
	}
	if err := decode.Group(g, b.Words, b.FetchedAt); err != nil {
		return "", status.Wrap(status.CodeDecode, "decode model", err)
	}

	s, _ := g.Readings[0].Value().Str()
	return strings.TrimRight(s, "\x00 "), nil
}

// ReadPVCount reads the number of PV strings the device reports.
func ReadPVCount(c Client) (int, error) {
	regs, err := c.ReadHoldingRegisters(catalog.PVCountAddress, 1)
	if err != nil {
		return 0, status.Wrap(status.CodeTransport, "read pv count", err)
	}
	if len(regs) != 1 {
		return 0, status.Wrap(status.CodeTransport, "read pv count", fmt.Errorf("got %d registers, want 1", len(regs)))
	}
	return int(regs[0]), nil
}
