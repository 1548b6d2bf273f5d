package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"strings"
	"time"

	"karmabot/pkg/event"
	"karmabot/pkg/leaderboard"
	"karmabot/pkg/router"
	"karmabot/pkg/telegram"
)

// System reports process diagnostics. Direct chats only; it has no business
// in a group.
type System struct {
	me        event.User
	sender    telegram.Sender
	startedAt time.Time
	log       *slog.Logger
}

func NewSystem(me event.User, sender telegram.Sender, startedAt time.Time, log *slog.Logger) *System {
	return &System{
		me:        me,
		sender:    sender,
		startedAt: startedAt,
		log:       componentLogger(log, "command.system"),
	}
}

func (h *System) Name() string { return "command.system" }

func (h *System) CanHandle(ev *event.ChatEvent) bool {
	return router.IsDirectCommand(ev, "system")
}

func (h *System) Handle(ctx context.Context, ev *event.ChatEvent) (bool, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "host: %s\n", hostname)
	fmt.Fprintf(&b, "go: %s\n", runtime.Version())
	fmt.Fprintf(&b, "uptime: %s\n", leaderboard.FormatDuration(time.Since(h.startedAt)))

	for _, addr := range externalIPv4() {
		fmt.Fprintf(&b, "addr: %s\n", addr)
	}

	_, err = h.sender.SendMessage(ctx, telegram.Outgoing{
		ChatID: ev.ChatID,
		Text:   b.String(),
	})
	return true, err
}

// externalIPv4 lists the non-loopback IPv4 addresses of the host.
func externalIPv4() []string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var addrs []string
	for _, iface := range interfaces {
		ifaceAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range ifaceAddrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() || ipNet.IP.To4() == nil {
				continue
			}
			addrs = append(addrs, fmt.Sprintf("%s %s", iface.Name, ipNet.IP))
		}
	}
	return addrs
}
